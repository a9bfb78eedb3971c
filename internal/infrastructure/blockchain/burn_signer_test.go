package blockchain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func stubRawTransact(t *testing.T, txErr error) *[]byte {
	t.Helper()
	orig := rawTransact
	t.Cleanup(func() { rawTransact = orig })

	var sent []byte
	rawTransact = func(_ *bind.BoundContract, opts *bind.TransactOpts, calldata []byte) (*types.Transaction, error) {
		if txErr != nil {
			return nil, txErr
		}
		sent = calldata
		to := common.HexToAddress(testTokenAddress)
		return types.NewTx(&types.LegacyTx{Nonce: 3, To: &to, Gas: 50000, GasPrice: big.NewInt(1), Data: calldata}), nil
	}
	return &sent
}

func TestNewBurnSigner_Validation(t *testing.T) {
	client := NewEVMClientWithCallView(nil, nil)

	_, err := NewBurnSigner(client, "nope", testSignerKey, nil)
	require.Error(t, err)
	_, err = NewBurnSigner(client, testTokenAddress, "", nil)
	require.Error(t, err)
	_, err = NewBurnSigner(client, testTokenAddress, "0x1234", nil)
	require.Error(t, err)

	signer, err := NewBurnSigner(client, testTokenAddress, testSignerKey, nil)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), signer.From())
}

func TestBurnSigner_SendBurn(t *testing.T) {
	sent := stubRawTransact(t, nil)
	signer, err := NewBurnSigner(NewEVMClientWithCallView(big.NewInt(11155111), nil), testTokenAddress, testSignerKey, big.NewInt(11155111))
	require.NoError(t, err)

	data, err := BurnCallData(big.NewInt(25))
	require.NoError(t, err)

	hash, err := signer.SendBurn(context.Background(), data)
	require.NoError(t, err)
	require.Regexp(t, `^0x[0-9a-f]{64}$`, hash)
	require.Equal(t, data, *sent)
}

func TestBurnSigner_RejectsWrongChain(t *testing.T) {
	sent := stubRawTransact(t, nil)
	signer, err := NewBurnSigner(NewEVMClientWithCallView(big.NewInt(1), nil), testTokenAddress, testSignerKey, big.NewInt(11155111))
	require.NoError(t, err)

	_, err = signer.SendBurn(context.Background(), []byte{0x42, 0x96, 0x6c, 0x68})
	require.ErrorIs(t, err, ErrChainMismatch)
	require.Nil(t, *sent)
}

func TestBurnSigner_SubmissionError(t *testing.T) {
	stubRawTransact(t, errors.New("insufficient funds for gas * price + value"))
	signer, err := NewBurnSigner(NewEVMClientWithCallView(big.NewInt(11155111), nil), testTokenAddress, testSignerKey, nil)
	require.NoError(t, err)

	_, err = signer.SendBurn(context.Background(), []byte{0x01})
	var txErr *TxError
	require.ErrorAs(t, err, &txErr)
	require.Contains(t, txErr.Reason, "insufficient funds")
}
