package core

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/raid-guild/x402-tip-links/types"
)

func TestVerifyTransfer(t *testing.T) {

	config := VerifyTransferConfig{
		RPCURL:           "http://localhost:8545",
		MinConfirmations: 2,
		Timeout:          time.Second,
		Attempts:         3,
		Backoff:          time.Millisecond,
	}

	params := VerifyTransferParams{
		TxHash: testTxHash,
		Token:  testToken,
		From:   testTipper,
		To:     testCreator,
		Value:  big.NewInt(2500000),
	}

	tests := []struct {
		name           string
		client         *mockEthClient
		modify         func(p *VerifyTransferParams)
		expectedReason types.InvalidReason
	}{
		{
			name:   "valid transfer",
			client: chainWith(ethtypes.ReceiptStatusSuccessful, 101, transferLog(testToken, testTipper, testCreator, 2500000)),
		},
		{
			name:   "valid transfer among other logs",
			client: chainWith(ethtypes.ReceiptStatusSuccessful, 101, transferLog(testOther, testTipper, testCreator, 2500000), transferLog(testToken, testTipper, testCreator, 2500000)),
		},
		{
			name:           "invalid transaction hash",
			modify:         func(p *VerifyTransferParams) { p.TxHash = "0x1234" },
			expectedReason: types.InvalidReasonInvalidTxHash,
		},
		{
			name:           "invalid token address",
			modify:         func(p *VerifyTransferParams) { p.Token = "usdc" },
			expectedReason: types.InvalidReasonInvalidTokenAddress,
		},
		{
			name:           "invalid payer address",
			modify:         func(p *VerifyTransferParams) { p.From = "0xA" },
			expectedReason: types.InvalidReasonInvalidPayerAddress,
		},
		{
			name:           "invalid recipient address",
			modify:         func(p *VerifyTransferParams) { p.To = "0xB" },
			expectedReason: types.InvalidReasonInvalidRecipientAddress,
		},
		{
			name:           "zero value",
			modify:         func(p *VerifyTransferParams) { p.Value = big.NewInt(0) },
			expectedReason: types.InvalidReasonInvalidTransferAmount,
		},
		{
			name: "transaction not found",
			client: &mockEthClient{
				transactionReceipt: func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
					return nil, ethereum.NotFound
				},
			},
			expectedReason: types.InvalidReasonTransactionNotFound,
		},
		{
			name:           "transaction reverted",
			client:         chainWith(ethtypes.ReceiptStatusFailed, 101, transferLog(testToken, testTipper, testCreator, 2500000)),
			expectedReason: types.InvalidReasonTransactionFailed,
		},
		{
			name:           "insufficient confirmations",
			client:         chainWith(ethtypes.ReceiptStatusSuccessful, 100, transferLog(testToken, testTipper, testCreator, 2500000)),
			expectedReason: types.InvalidReasonInsufficientConfirmations,
		},
		{
			name:           "transfer of another token",
			client:         chainWith(ethtypes.ReceiptStatusSuccessful, 101, transferLog(testOther, testTipper, testCreator, 2500000)),
			expectedReason: types.InvalidReasonTransferNotFound,
		},
		{
			name:           "no logs",
			client:         chainWith(ethtypes.ReceiptStatusSuccessful, 101),
			expectedReason: types.InvalidReasonTransferNotFound,
		},
		{
			name:           "sender mismatch",
			client:         chainWith(ethtypes.ReceiptStatusSuccessful, 101, transferLog(testToken, testOther, testCreator, 2500000)),
			expectedReason: types.InvalidReasonTransferSenderMismatch,
		},
		{
			name:           "recipient mismatch",
			client:         chainWith(ethtypes.ReceiptStatusSuccessful, 101, transferLog(testToken, testTipper, testOther, 2500000)),
			expectedReason: types.InvalidReasonTransferRecipientMismatch,
		},
		{
			name:           "amount mismatch",
			client:         chainWith(ethtypes.ReceiptStatusSuccessful, 101, transferLog(testToken, testTipper, testCreator, 2490000)),
			expectedReason: types.InvalidReasonTransferAmountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := tt.client
			if client == nil {
				client = chainWith(ethtypes.ReceiptStatusSuccessful, 101, transferLog(testToken, testTipper, testCreator, 2500000))
			}
			setupMockEthClient(t, client)

			p := params
			if tt.modify != nil {
				tt.modify(&p)
			}

			result, err := VerifyTransfer(context.Background(), config, p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			// Every dialed client is closed, invalid parameters never dial
			expectedClosed := 1
			if tt.modify != nil {
				expectedClosed = 0
			}
			if client.closed != expectedClosed {
				t.Errorf("expected client closed %d times, got %d", expectedClosed, client.closed)
			}

			if tt.expectedReason == "" {
				if !result.IsValid {
					t.Fatalf("expected valid transfer, got %s", result.InvalidReason)
				}
				if result.Payer != common.HexToAddress(testTipper).Hex() {
					t.Errorf("expected payer %s, got %s", testTipper, result.Payer)
				}
				return
			}

			if result.IsValid {
				t.Fatal("expected invalid transfer")
			}
			if result.InvalidReason != tt.expectedReason {
				t.Errorf("expected reason %s, got %s", tt.expectedReason, result.InvalidReason)
			}
		})
	}
}

func TestVerifyTransfer_Retries(t *testing.T) {

	config := VerifyTransferConfig{
		RPCURL:   "http://localhost:8545",
		Timeout:  time.Second,
		Attempts: 3,
		Backoff:  time.Millisecond,
	}

	params := VerifyTransferParams{
		TxHash: testTxHash,
		Token:  testToken,
		From:   testTipper,
		To:     testCreator,
		Value:  big.NewInt(1000000),
	}

	t.Run("transient rpc errors are retried", func(t *testing.T) {
		client := chainWith(ethtypes.ReceiptStatusSuccessful, 100, transferLog(testToken, testTipper, testCreator, 1000000))
		healthy := client.transactionReceipt
		calls := 0
		client.transactionReceipt = func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("connection reset")
			}
			return healthy(ctx, txHash)
		}
		setupMockEthClient(t, client)

		result, err := VerifyTransfer(context.Background(), config, params)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsValid {
			t.Fatalf("expected valid transfer, got %s", result.InvalidReason)
		}
		if calls != 3 {
			t.Errorf("expected 3 receipt calls, got %d", calls)
		}
	})

	t.Run("exhausted retries are an error", func(t *testing.T) {
		calls := 0
		client := &mockEthClient{
			transactionReceipt: func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
				calls++
				return nil, errors.New("connection reset")
			},
		}
		setupMockEthClient(t, client)

		if _, err := VerifyTransfer(context.Background(), config, params); err == nil {
			t.Fatal("expected error")
		}
		if client.closed != 1 {
			t.Errorf("expected client closed once, got %d", client.closed)
		}
		if calls != 3 {
			t.Errorf("expected 3 receipt calls, got %d", calls)
		}
	})

	t.Run("not found is not retried", func(t *testing.T) {
		calls := 0
		setupMockEthClient(t, &mockEthClient{
			transactionReceipt: func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
				calls++
				return nil, ethereum.NotFound
			},
		})

		result, err := VerifyTransfer(context.Background(), config, params)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.InvalidReason != types.InvalidReasonTransactionNotFound {
			t.Errorf("expected transaction_not_found, got %s", result.InvalidReason)
		}
		if calls != 1 {
			t.Errorf("expected 1 receipt call, got %d", calls)
		}
	})

	t.Run("missing rpc url", func(t *testing.T) {
		if _, err := VerifyTransfer(context.Background(), VerifyTransferConfig{}, params); err == nil {
			t.Fatal("expected error")
		}
	})
}
