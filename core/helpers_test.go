package core

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	testToken   = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	testTipper  = "0x0000000000000000000000000000000000000001"
	testCreator = "0x0000000000000000000000000000000000000002"
	testOther   = "0x0000000000000000000000000000000000000003"
)

var testTxHash = "0x" + strings.Repeat("ab", 32)

type mockEthClient struct {
	transactionReceipt func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
	blockNumber        func(ctx context.Context) (uint64, error)
	closed             int
}

func (m *mockEthClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	return m.transactionReceipt(ctx, txHash)
}

func (m *mockEthClient) BlockNumber(ctx context.Context) (uint64, error) {
	return m.blockNumber(ctx)
}

func (m *mockEthClient) Close() {
	m.closed++
}

func setupMockEthClient(t *testing.T, client *mockEthClient) {
	t.Helper()

	originalNewEthClient := NewEthClient
	t.Cleanup(func() {
		NewEthClient = originalNewEthClient
	})

	NewEthClient = func(rpcURL string) (EthClientInterface, error) {
		return client, nil
	}
}

// transferLog builds an ERC20 Transfer log.
func transferLog(token, from, to string, value int64) *ethtypes.Log {
	return &ethtypes.Log{
		Address: common.HexToAddress(token),
		Topics: []common.Hash{
			crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")),
			common.BytesToHash(common.HexToAddress(from).Bytes()),
			common.BytesToHash(common.HexToAddress(to).Bytes()),
		},
		Data: common.LeftPadBytes(big.NewInt(value).Bytes(), 32),
	}
}

// chainWith returns a mock chain where the receipt is mined at block 100 and the head is head.
func chainWith(status uint64, head uint64, logs ...*ethtypes.Log) *mockEthClient {
	return &mockEthClient{
		transactionReceipt: func(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
			return &ethtypes.Receipt{
				Status:      status,
				BlockNumber: big.NewInt(100),
				TxHash:      txHash,
				Logs:        logs,
			}, nil
		},
		blockNumber: func(ctx context.Context) (uint64, error) {
			return head, nil
		},
	}
}
