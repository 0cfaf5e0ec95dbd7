package core

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/raid-guild/x402-tip-links/types"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

// Set the raw JSON for the ERC20 Transfer event
const transferEventJSON = `[{
	"type": "event",
	"name": "Transfer",
	"anonymous": false,
	"inputs": [
		{"name": "from", "type": "address", "indexed": true},
		{"name": "to", "type": "address", "indexed": true},
		{"name": "value", "type": "uint256", "indexed": false}
	]
}]`

// NormalizeTxHash lower-cases a transaction hash and adds the 0x prefix if missing.
func NormalizeTxHash(txHash string) string {
	h := strings.ToLower(strings.TrimSpace(txHash))
	if h != "" && !strings.HasPrefix(h, "0x") {
		h = "0x" + h
	}
	return h
}

// IsTxHash reports whether txHash is a normalized 32 byte hex hash.
func IsTxHash(txHash string) bool {
	return txHashPattern.MatchString(txHash)
}

// VerifyTransferConfig is the configuration for the verify transfer operation.
type VerifyTransferConfig struct {
	RPCURL           string
	MinConfirmations uint64
	Timeout          time.Duration
	Attempts         int
	Backoff          time.Duration
}

// VerifyTransferParams are the parameters for the verify transfer operation.
type VerifyTransferParams struct {
	TxHash string
	Token  string
	From   string
	To     string
	Value  *big.Int
}

// Verifier confirms that a proof of payment satisfies a transfer.
type Verifier interface {
	Verify(ctx context.Context, p VerifyTransferParams) (types.VerifyResponse, error)
}

// ChainVerifier verifies ERC20 transfers against the configured network.
type ChainVerifier struct {
	config VerifyTransferConfig
}

// NewChainVerifier creates a verifier that reads receipts over JSON-RPC.
func NewChainVerifier(c VerifyTransferConfig) *ChainVerifier {
	return &ChainVerifier{config: c}
}

// Verify implements Verifier.
func (v *ChainVerifier) Verify(ctx context.Context, p VerifyTransferParams) (types.VerifyResponse, error) {
	return VerifyTransfer(ctx, v.config, p)
}

// VerifyTransfer verifies that the transaction transferred exactly value of token from the payer
// to the recipient and is confirmed on the configured network.
func VerifyTransfer(ctx context.Context, c VerifyTransferConfig, p VerifyTransferParams) (types.VerifyResponse, error) {

	// Verify the transaction hash is a 32 byte hex string
	txHash := NormalizeTxHash(p.TxHash)
	if !IsTxHash(txHash) {
		return invalidResponse(types.InvalidReasonInvalidTxHash), nil
	}

	// Verify the token is a valid address
	if !common.IsHexAddress(p.Token) {
		return invalidResponse(types.InvalidReasonInvalidTokenAddress), nil
	}

	// Verify the payer is a valid address
	if !common.IsHexAddress(p.From) {
		return invalidResponse(types.InvalidReasonInvalidPayerAddress), nil
	}

	// Verify the recipient is a valid address
	if !common.IsHexAddress(p.To) {
		return invalidResponse(types.InvalidReasonInvalidRecipientAddress), nil
	}

	// Verify the expected value is positive
	if p.Value == nil || p.Value.Sign() <= 0 {
		return invalidResponse(types.InvalidReasonInvalidTransferAmount), nil
	}

	// Parse the event ABI for Transfer
	transferABI, err := abi.JSON(strings.NewReader(transferEventJSON))
	if err != nil {
		// Return an error that will be handled as an internal server error
		return types.VerifyResponse{}, fmt.Errorf("failed to parse transfer ABI: %w", err)
	}
	transferEvent := transferABI.Events["Transfer"]

	// Get the RPC URL for the configured network
	if c.RPCURL == "" {
		// Return an error that will be handled as an internal server error
		return types.VerifyResponse{}, fmt.Errorf("RPC_URL is not set")
	}

	// Dial the Ethereum RPC client
	client, err := NewEthClient(c.RPCURL)
	if err != nil {
		// Return an error that will be handled as an internal server error
		return types.VerifyResponse{}, fmt.Errorf("failed to dial RPC client: %w", err)
	}
	defer client.Close()

	// Create the context for network operations with timeout
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Get the transaction receipt, a missing receipt is not retried
	var receipt *ethtypes.Receipt
	err = retry(ctx, c.Attempts, c.Backoff, func(ctx context.Context) error {
		r, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
		if errors.Is(err, ethereum.NotFound) {
			return permanent(err)
		}
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if errors.Is(err, ethereum.NotFound) {
		return invalidResponse(types.InvalidReasonTransactionNotFound), nil
	}
	if err != nil {
		return types.VerifyResponse{}, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	// Verify the receipt is not nil
	if receipt == nil {
		return invalidResponse(types.InvalidReasonTransactionNotFound), nil
	}

	// Verify the transaction did not revert
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return invalidResponse(types.InvalidReasonTransactionFailed), nil
	}

	// Verify the receipt is included in a block
	if receipt.BlockNumber == nil {
		return invalidResponse(types.InvalidReasonInsufficientConfirmations), nil
	}

	// Get the latest block number
	var head uint64
	err = retry(ctx, c.Attempts, c.Backoff, func(ctx context.Context) error {
		n, err := client.BlockNumber(ctx)
		if err != nil {
			return err
		}
		head = n
		return nil
	})
	if err != nil {
		return types.VerifyResponse{}, fmt.Errorf("failed to get block number: %w", err)
	}

	// Verify the transaction has enough confirmations
	minConfirmations := c.MinConfirmations
	if minConfirmations == 0 {
		minConfirmations = 1
	}
	if confirmations(head, receipt.BlockNumber.Uint64()) < minConfirmations {
		return invalidResponse(types.InvalidReasonInsufficientConfirmations), nil
	}

	tokenAddress := common.HexToAddress(p.Token)
	fromAddress := common.HexToAddress(p.From)
	toAddress := common.HexToAddress(p.To)

	// Find a Transfer log of the token that matches the payment
	reason := types.InvalidReasonTransferNotFound
	for _, l := range receipt.Logs {
		if l == nil || l.Address != tokenAddress {
			continue
		}
		if len(l.Topics) != 3 || l.Topics[0] != transferEvent.ID {
			continue
		}

		// Unpack the non-indexed transfer value
		values, err := transferABI.Unpack("Transfer", l.Data)
		if err != nil || len(values) != 1 {
			continue
		}
		value, ok := values[0].(*big.Int)
		if !ok {
			continue
		}

		logFrom := common.BytesToAddress(l.Topics[1].Bytes())
		logTo := common.BytesToAddress(l.Topics[2].Bytes())

		switch {
		case logFrom != fromAddress:
			reason = types.InvalidReasonTransferSenderMismatch
		case logTo != toAddress:
			reason = types.InvalidReasonTransferRecipientMismatch
		case value.Cmp(p.Value) != 0:
			reason = types.InvalidReasonTransferAmountMismatch
		default:
			// Return verify response valid with the payer address
			return types.VerifyResponse{
				IsValid: true,
				Payer:   logFrom.Hex(),
			}, nil
		}
	}

	return invalidResponse(reason), nil
}

func confirmations(head, block uint64) uint64 {
	if head < block {
		return 0
	}
	return head - block + 1
}

func invalidResponse(reason types.InvalidReason) types.VerifyResponse {
	return types.VerifyResponse{
		IsValid:       false,
		InvalidReason: reason,
	}
}
