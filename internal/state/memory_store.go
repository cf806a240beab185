package state

import (
	"context"
	"sync"

	"github.com/elys-network/clexec/internal/types"
)

// MemoryStore keeps receipts in process. Used by tests and STORE_MODE=memory.
type MemoryStore struct {
	mu       sync.RWMutex
	receipts []types.ActionReceipt
	sweeps   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveReceipt assigns the next receipt id and stores a copy.
func (m *MemoryStore) SaveReceipt(ctx context.Context, receipt *types.ActionReceipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt.ReceiptID = int64(len(m.receipts) + 1)
	m.receipts = append(m.receipts, *receipt)
	return nil
}

// RecentReceipts returns up to limit receipts, newest first.
func (m *MemoryStore) RecentReceipts(ctx context.Context, limit int) ([]types.ActionReceipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.ActionReceipt, 0, limit)
	for i := len(m.receipts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.receipts[i])
	}
	return out, nil
}

func (m *MemoryStore) Summary(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Summary{ByOperation: make(map[string]OperationStats), Sweeps: m.sweeps}
	for _, r := range m.receipts {
		s.TotalActions++
		stats := s.ByOperation[r.Operation]
		stats.Total++
		if r.Success {
			s.SuccessfulActions++
			s.FeesToVault = addAmounts(s.FeesToVault, r.ToVault)
		} else {
			s.FailedActions++
			stats.Failed++
		}
		s.ByOperation[r.Operation] = stats
		if s.LastActionAt == nil || r.Timestamp.After(*s.LastActionAt) {
			ts := r.Timestamp
			s.LastActionAt = &ts
		}
	}
	return s, nil
}

// NextSweep increments and returns the sweep number.
func (m *MemoryStore) NextSweep(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	return m.sweeps, nil
}
