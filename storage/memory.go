package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/raid-guild/x402-tip-links/types"
)

// MemoryRegistry keeps tip configurations in process memory. Records are lost on restart
// and are not shared between instances.
type MemoryRegistry struct {
	mu   sync.RWMutex
	tips map[string]types.TipConfig
	now  func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		tips: make(map[string]types.TipConfig),
		now:  time.Now,
	}
}

func (r *MemoryRegistry) Create(_ context.Context, creatorAddress, defaultAmount string) (types.TipConfig, error) {
	tip := types.TipConfig{
		ID:             NewTipID(),
		CreatorAddress: creatorAddress,
		DefaultAmount:  defaultAmount,
		CreatedAt:      r.now().UnixMilli(),
	}

	r.mu.Lock()
	r.tips[tip.ID] = tip
	r.mu.Unlock()

	return tip, nil
}

func (r *MemoryRegistry) Get(_ context.Context, id string) (types.TipConfig, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tip, ok := r.tips[id]
	return tip, ok, nil
}

// Len returns the number of stored tip configurations.
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tips)
}

// MemoryLedger keeps settlements in process memory.
type MemoryLedger struct {
	mu          sync.Mutex
	settlements map[string]types.Settlement
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{settlements: make(map[string]types.Settlement)}
}

func (l *MemoryLedger) Get(_ context.Context, txHash string) (types.Settlement, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.settlements[strings.ToLower(txHash)]
	return s, ok, nil
}

func (l *MemoryLedger) Claim(_ context.Context, s types.Settlement) (types.Settlement, bool, error) {
	key := strings.ToLower(s.TxHash)

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.settlements[key]; ok {
		return existing, false, nil
	}
	s.TxHash = key
	l.settlements[key] = s
	return s, true, nil
}

// Len returns the number of stored settlements.
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.settlements)
}
