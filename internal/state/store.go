package state

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/types"
)

const (
	defaultReceiptLimit = 10
	maxReceiptLimit     = 100
)

// Store persists executor receipts and the keeper's sweep sequence.
type Store interface {
	SaveReceipt(ctx context.Context, receipt *types.ActionReceipt) error
	RecentReceipts(ctx context.Context, limit int) ([]types.ActionReceipt, error)
	Summary(ctx context.Context) (Summary, error)
	NextSweep(ctx context.Context) (int64, error)
}

// OperationStats counts the receipts of one operation.
type OperationStats struct {
	Total  int64 `json:"total"`
	Failed int64 `json:"failed"`
}

// Summary aggregates every stored receipt.
type Summary struct {
	TotalActions      int64                     `json:"total_actions"`
	SuccessfulActions int64                     `json:"successful_actions"`
	FailedActions     int64                     `json:"failed_actions"`
	ByOperation       map[string]OperationStats `json:"by_operation"`
	FeesToVault       []types.TokenAmount       `json:"fees_to_vault"`
	Sweeps            int64                     `json:"sweeps"`
	LastActionAt      *time.Time                `json:"last_action_at,omitempty"`
}

// clampLimit applies the default page size and its upper bound.
func clampLimit(limit int) int {
	if limit <= 0 || limit > maxReceiptLimit {
		return defaultReceiptLimit
	}
	return limit
}

// addAmounts merges amounts into totals by token, keeping first-seen order.
func addAmounts(totals []types.TokenAmount, amounts []types.TokenAmount) []types.TokenAmount {
	for _, a := range amounts {
		if a.Amount == nil || a.Amount.IsZero() {
			continue
		}
		found := false
		for i := range totals {
			if totals[i].Token == a.Token {
				totals[i].Amount = new(uint256.Int).Add(totals[i].Amount, a.Amount)
				found = true
				break
			}
		}
		if !found {
			totals = append(totals, types.TokenAmount{Token: a.Token, Amount: a.Amount.Clone()})
		}
	}
	return totals
}
