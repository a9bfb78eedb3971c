package redemption

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"coffee-rewards.backend/internal/domain/entities"
	"coffee-rewards.backend/internal/infrastructure/blockchain"
)

// State is a step of the client-side redemption flow
type State string

const (
	StateIdle              State = "idle"
	StateConfirming        State = "confirming"
	StateAwaitingSignature State = "awaiting-signature"
	StateSubmitted         State = "submitted"
	StateRecording         State = "recording"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

var (
	ErrInvalidTransition   = errors.New("invalid redemption transition")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// InsufficientBalanceError is returned by Start when the known balance
// does not cover the reward.
type InsufficientBalanceError struct {
	Reward entities.Reward
	Have   *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Not enough CoffeeCoins to redeem %s. You need %d, have %s.",
		e.Reward.Name, e.Reward.PointsRequired, e.Have.String())
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// Signer broadcasts a burn call against the rewards token and returns the
// transaction hash without waiting for it to be mined.
type Signer interface {
	SendBurn(ctx context.Context, data []byte) (string, error)
}

// Recorder acknowledges a broadcast burn with the backend.
type Recorder interface {
	RecordRedemption(ctx context.Context, input *entities.RecordRedemptionInput) (*entities.Redemption, error)
}

// BalanceRefresher reloads the holder's balance after a redemption.
type BalanceRefresher interface {
	RefreshBalance(ctx context.Context) (*big.Int, error)
}

// Flow drives one redemption at a time. Failures are terminal for the
// attempt; the caller re-initiates with Start.
type Flow struct {
	signer    Signer
	recorder  Recorder
	refresher BalanceRefresher

	mu         sync.Mutex
	state      State
	reward     entities.Reward
	message    string
	err        error
	txHash     string
	redemption *entities.Redemption
	balance    *big.Int
	observer   func(State, string)
}

// NewFlow creates an idle flow. refresher may be nil.
func NewFlow(signer Signer, recorder Recorder, refresher BalanceRefresher) *Flow {
	return &Flow{
		signer:    signer,
		recorder:  recorder,
		refresher: refresher,
		state:     StateIdle,
	}
}

// Observe registers fn to be called after every state change.
func (f *Flow) Observe(fn func(state State, message string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = fn
}

// State returns the current step
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// StatusMessage returns the in-progress message, empty once the flow settles.
func (f *Flow) StatusMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Err returns the error that aborted or failed the last attempt.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// TxHash returns the burn transaction hash once submitted.
func (f *Flow) TxHash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txHash
}

// Redemption returns the acknowledged redemption once done.
func (f *Flow) Redemption() *entities.Redemption {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redemption
}

// Balance returns the balance read after the last successful redemption.
func (f *Flow) Balance() *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance
}

// Start asks to redeem reward given the holder's known balance. It moves
// the flow to confirming, or leaves it idle when the balance is too low.
func (f *Flow) Start(reward entities.Reward, balance *big.Int) error {
	f.mu.Lock()
	switch f.state {
	case StateIdle, StateDone, StateFailed:
	default:
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, state)
	}

	f.reset()
	if balance == nil {
		balance = new(big.Int)
	}
	if balance.Cmp(new(big.Int).SetUint64(reward.PointsRequired)) < 0 {
		err := &InsufficientBalanceError{Reward: reward, Have: new(big.Int).Set(balance)}
		f.err = err
		f.transition(StateIdle, "")
		return err
	}

	f.reward = reward
	f.transition(StateConfirming, fmt.Sprintf("Redeem %s for %d CoffeeCoins?", reward.Name, reward.PointsRequired))
	return nil
}

// Cancel abandons a pending confirmation.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	if f.state != StateConfirming {
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, state)
	}
	f.reset()
	f.transition(StateIdle, "")
	return nil
}

// Confirm builds the burn call, has it signed and broadcast, then records
// the redemption with the returned hash. The hash is recorded as soon as
// it is known; the burn is not awaited.
func (f *Flow) Confirm(ctx context.Context) (*entities.Redemption, error) {
	f.mu.Lock()
	if f.state != StateConfirming {
		state := f.state
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, state)
	}
	reward := f.reward
	points := new(big.Int).SetUint64(reward.PointsRequired)
	f.transition(StateAwaitingSignature, "Please confirm the burn transaction in your wallet...")

	data, err := blockchain.BurnCallData(points)
	if err != nil {
		return nil, f.fail(fmt.Errorf("failed to build burn transaction: %w", err))
	}

	txHash, err := f.signer.SendBurn(ctx, data)
	if err != nil {
		return nil, f.fail(err)
	}

	f.mu.Lock()
	f.txHash = txHash
	f.transition(StateSubmitted, "Burn transaction submitted: "+txHash)
	f.mu.Lock()
	f.transition(StateRecording, "Recording redemption...")

	redemption, err := f.recorder.RecordRedemption(ctx, &entities.RecordRedemptionInput{
		RewardID:            reward.ID,
		PointsBurned:        points.String(),
		BurnTransactionHash: txHash,
	})
	if err != nil {
		return nil, f.fail(err)
	}

	var balance *big.Int
	if f.refresher != nil {
		// a stale balance does not undo the redemption
		balance, _ = f.refresher.RefreshBalance(ctx)
	}

	f.mu.Lock()
	f.redemption = redemption
	f.balance = balance
	f.transition(StateDone, "")
	return redemption, nil
}

// fail moves the flow to failed. Called without f.mu held.
func (f *Flow) fail(err error) error {
	f.mu.Lock()
	f.err = err
	f.transition(StateFailed, "")
	return err
}

func (f *Flow) reset() {
	f.reward = entities.Reward{}
	f.message = ""
	f.err = nil
	f.txHash = ""
	f.redemption = nil
}

// transition sets the state and releases f.mu before notifying the observer.
func (f *Flow) transition(state State, message string) {
	f.state = state
	f.message = message
	observer := f.observer
	f.mu.Unlock()
	if observer != nil {
		observer(state, message)
	}
}
