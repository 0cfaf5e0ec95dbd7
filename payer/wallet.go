package payer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/raid-guild/x402-tip-links/clients"
)

// Set the raw JSON for the ERC20 transfer function
const transferJSON = `[{
	"type": "function",
	"name": "transfer",
	"inputs": [
		{"name": "to", "type": "address"},
		{"name": "value", "type": "uint256"}
	],
	"outputs": [{"name": "", "type": "bool"}],
	"constant": false
}]`

var ErrTransactionFailed = errors.New("transaction reverted")

// WalletConfig is the configuration of a wallet.
type WalletConfig struct {
	ChainID      int64
	RPCURL       string
	PollInterval time.Duration
	Timeout      time.Duration
}

// TransferParams describe an ERC20 transfer.
type TransferParams struct {
	Token     string
	Recipient string
	Amount    *big.Int
}

// Wallet submits token transfers on behalf of a signer.
type Wallet struct {
	config WalletConfig
	signer Signer
	logger *slog.Logger
}

func NewWallet(c WalletConfig, signer Signer, logger *slog.Logger) *Wallet {
	if logger == nil {
		logger = slog.Default()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	return &Wallet{config: c, signer: signer, logger: logger}
}

// Address returns the connected address.
func (w *Wallet) Address() string {
	return w.signer.Address().Hex()
}

// Transfer submits the transfer, waits for it to be mined and returns the transaction hash.
func (w *Wallet) Transfer(ctx context.Context, p TransferParams) (string, error) {

	// Verify the token and recipient are valid addresses
	if !common.IsHexAddress(p.Token) {
		return "", fmt.Errorf("invalid token address %q", p.Token)
	}
	if !common.IsHexAddress(p.Recipient) {
		return "", fmt.Errorf("invalid recipient address %q", p.Recipient)
	}

	// Verify the amount is positive
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return "", fmt.Errorf("transfer amount must be positive")
	}

	// Create the context for network operations with timeout
	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	// Set the chain ID
	chainID := big.NewInt(w.config.ChainID)

	// Set the contract address
	contractAddress := common.HexToAddress(p.Token)

	// Parse the contract ABI for transfer
	contractABI, err := abi.JSON(strings.NewReader(transferJSON))
	if err != nil {
		return "", fmt.Errorf("failed to parse contract ABI: %w", err)
	}

	// Pack the function call data
	txData, err := contractABI.Pack("transfer", common.HexToAddress(p.Recipient), p.Amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack transfer: %w", err)
	}

	// Dial the Ethereum RPC client
	client, err := clients.NewEthClient(w.config.RPCURL)
	if err != nil {
		return "", fmt.Errorf("failed to dial RPC client: %w", err)
	}
	defer client.Close()

	// Verify the RPC client is connected to the configured network
	networkID, err := client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get chain ID: %w", err)
	}
	if networkID.Cmp(chainID) != 0 {
		return "", fmt.Errorf("RPC chain ID %s does not match configured chain ID %s", networkID, chainID)
	}

	from := w.signer.Address()

	// Get the pending nonce for the account
	txNonce, err := client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get pending nonce: %w", err)
	}

	// Get the suggested gas tip cap
	gasTipCap, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to suggest gas tip cap: %w", err)
	}

	// Get the latest block header to get the base fee
	blockHeader, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get block header: %w", err)
	}

	// Verify the block header base fee is not nil
	if blockHeader.BaseFee == nil {
		return "", fmt.Errorf("block header missing base fee: network may not support EIP-1559")
	}

	// Determine the gas fee cap (2x base fee + gas tip cap)
	gasFeeCap := new(big.Int).Add(
		new(big.Int).Mul(blockHeader.BaseFee, big.NewInt(2)),
		gasTipCap,
	)

	// Get the estimated gas limit to set the gas amount
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &contractAddress,
		Data: txData,
	})
	if err != nil {
		return "", fmt.Errorf("failed to estimate gas: %w", err)
	}

	// Add 20% buffer to the gas estimate
	gasLimit = gasLimit * 120 / 100

	// Create the transaction using EIP-1559
	transaction := ethtypes.NewTx(&ethtypes.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     txNonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &contractAddress,
		Value:     big.NewInt(0),
		Data:      txData,
	})

	// Sign the transaction
	signedTx, err := w.signer.SignTx(transaction, chainID)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	// Send the signed transaction
	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	txHash := signedTx.Hash()
	w.logger.Info("tip transfer sent", "tx_hash", txHash.Hex(), "recipient", p.Recipient, "amount", p.Amount.String())

	// Wait for the transaction to be mined
	receipt, err := w.waitMined(ctx, client, txHash)
	if err != nil {
		return "", err
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return "", fmt.Errorf("%w: %s", ErrTransactionFailed, txHash.Hex())
	}

	return txHash.Hex(), nil
}

// waitMined polls for the receipt until it exists or the context is done.
func (w *Wallet) waitMined(ctx context.Context, client clients.EthClientInterface, txHash common.Hash) (*ethtypes.Receipt, error) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			w.logger.Debug("receipt not available yet", "tx_hash", txHash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for transaction %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
