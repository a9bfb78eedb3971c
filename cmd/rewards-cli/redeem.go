package main

import (
	"bufio"
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coffee-rewards.backend/internal/domain/entities"
	"coffee-rewards.backend/internal/infrastructure/blockchain"
	"coffee-rewards.backend/internal/redemption"
	"coffee-rewards.backend/pkg/logger"
	"coffee-rewards.backend/pkg/rewardsapi"
)

// newBurnSigner is replaced in tests
var newBurnSigner = func(ctx context.Context, rpcURL, contract, keyHex string, chainID *big.Int) (burnSigner, func(), error) {
	client, err := blockchain.NewEVMClient(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to chain rpc: %w", err)
	}
	signer, err := blockchain.NewBurnSigner(client, contract, keyHex, chainID)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return signer, client.Close, nil
}

type burnSigner interface {
	redemption.Signer
	From() common.Address
}

type redeemOptions struct {
	rpcURL     string
	contract   string
	privateKey string
	yes        bool
}

func newRedeemCommand() *cobra.Command {
	var opts redeemOptions

	cmd := &cobra.Command{
		Use:   "redeem <rewardId>",
		Short: "Burn points from your wallet for a reward and collect the voucher",
		Long: `Burns the reward's points from the embedded wallet with a locally held
key, then records the redemption with the backend using the burn
transaction hash. The burn is not awaited before recording.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRedeem(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.rpcURL, "rpc-url", "", "Chain RPC endpoint (default $SEPOLIA_RPC_URL)")
	cmd.Flags().StringVar(&opts.contract, "contract", "", "Token contract address (default $COFFEE_COIN_CONTRACT_ADDRESS)")
	cmd.Flags().StringVar(&opts.privateKey, "private-key", "", "Embedded wallet key (default $REDEEMER_PRIVATE_KEY)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func runRedeem(cmd *cobra.Command, rewardID string, opts redeemOptions) error {
	ctx := cmd.Context()
	client := getCliContext(cmd).Client
	out := cmd.OutOrStdout()

	reward, err := findReward(ctx, client, rewardID)
	if err != nil {
		return err
	}

	me, err := client.Me(ctx)
	if err != nil {
		return err
	}
	if me.Wallet == nil {
		return errNoWallet
	}
	balance, err := client.Balance(ctx, me.Wallet.Address)
	if err != nil {
		return err
	}
	have, ok := new(big.Int).SetString(balance.Balance, 10)
	if !ok {
		return fmt.Errorf("unexpected balance %q", balance.Balance)
	}

	chainID, ok := entities.ParseChainID(me.Wallet.ChainID)
	if !ok {
		return fmt.Errorf("unexpected wallet chain id %q", me.Wallet.ChainID)
	}
	signer, closeSigner, err := newBurnSigner(ctx,
		firstNonEmpty(opts.rpcURL, envOr("SEPOLIA_RPC_URL", "")),
		firstNonEmpty(opts.contract, envOr("COFFEE_COIN_CONTRACT_ADDRESS", "")),
		firstNonEmpty(opts.privateKey, envOr("REDEEMER_PRIVATE_KEY", "")),
		chainID.BigInt(),
	)
	if err != nil {
		return err
	}
	defer closeSigner()
	if !strings.EqualFold(signer.From().Hex(), me.Wallet.Address) {
		return fmt.Errorf("private key controls %s, not the embedded wallet %s", signer.From().Hex(), me.Wallet.Address)
	}

	flow := redemption.NewFlow(signer, apiRecorder{client: client}, apiBalance{client: client, address: me.Wallet.Address})
	flow.Observe(func(state redemption.State, message string) {
		logger.Debug(ctx, "Redemption state changed", zap.String("state", string(state)))
		if message != "" {
			fmt.Fprintln(out, message)
		}
	})

	if err := flow.Start(reward, have); err != nil {
		return err
	}

	if !opts.yes && !confirm(cmd) {
		_ = flow.Cancel()
		fmt.Fprintln(out, "Redemption cancelled.")
		return nil
	}

	result, err := flow.Confirm(ctx)
	if err != nil {
		if tx := flow.TxHash(); tx != "" {
			return fmt.Errorf("burn %s was sent but recording failed: %w", tx, err)
		}
		return err
	}

	fmt.Fprintf(out, "Redeemed %s. Voucher: %s\n", reward.Name, result.VoucherCode)
	fmt.Fprintf(out, "Burn transaction: %s\n", result.BurnTransactionHash)
	if b := flow.Balance(); b != nil {
		fmt.Fprintf(out, "Balance: %s CFC\n", b.String())
	}
	return nil
}

func findReward(ctx context.Context, client *rewardsapi.Client, id string) (entities.Reward, error) {
	rewards, err := client.Rewards(ctx)
	if err != nil {
		return entities.Reward{}, err
	}
	for _, r := range rewards {
		if r.ID == id {
			return entities.Reward{
				ID:             r.ID,
				Name:           r.Name,
				PointsRequired: r.PointsRequired,
				Description:    r.Description,
				Icon:           r.Icon,
			}, nil
		}
	}
	return entities.Reward{}, fmt.Errorf("unknown reward %q", id)
}

func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "Continue? [y/N] ")
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

type apiRecorder struct {
	client *rewardsapi.Client
}

func (r apiRecorder) RecordRedemption(ctx context.Context, input *entities.RecordRedemptionInput) (*entities.Redemption, error) {
	ack, err := r.client.RecordRedemption(ctx, &rewardsapi.RecordRedemptionRequest{
		RewardID:            input.RewardID,
		PointsBurned:        input.PointsBurned,
		BurnTransactionHash: input.BurnTransactionHash,
	})
	if err != nil {
		return nil, err
	}
	return &entities.Redemption{
		RewardID:            ack.RewardID,
		PointsBurned:        ack.PointsBurned,
		BurnTransactionHash: ack.BurnTransactionHash,
		VoucherCode:         ack.VoucherCode,
	}, nil
}

type apiBalance struct {
	client  *rewardsapi.Client
	address string
}

func (b apiBalance) RefreshBalance(ctx context.Context) (*big.Int, error) {
	res, err := b.client.Balance(ctx, b.address)
	if err != nil {
		return nil, err
	}
	v, ok := new(big.Int).SetString(res.Balance, 10)
	if !ok {
		return nil, fmt.Errorf("unexpected balance %q", res.Balance)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
