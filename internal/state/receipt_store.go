package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/elys-network/clexec/internal/types"
)

// PostgresStore stores receipts in the action_receipts table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open pool. EnsureSchema must have run.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return &PostgresStore{db: db}, nil
}

// receiptRecord is an action receipt in column form.
type receiptRecord struct {
	ActionID   string
	Timestamp  time.Time
	Operation  string
	Width      sql.NullString
	Caller     string
	Success    bool
	ErrorKind  sql.NullString
	Message    sql.NullString
	DurationMS int64
	Tokens     []string
	SubActions []byte
	Credited   []byte
	ToVault    []byte
}

func encodeReceipt(r *types.ActionReceipt) (receiptRecord, error) {
	rec := receiptRecord{
		ActionID:   r.ActionID,
		Timestamp:  r.Timestamp,
		Operation:  r.Operation,
		Caller:     r.Caller.Hex(),
		Success:    r.Success,
		ErrorKind:  sql.NullString{String: r.ErrorKind, Valid: r.ErrorKind != ""},
		Message:    sql.NullString{String: r.Message, Valid: r.Message != ""},
		DurationMS: r.Duration.Milliseconds(),
		Tokens:     r.Tokens(),
	}
	if r.Width != nil {
		rec.Width = sql.NullString{String: r.Width.String(), Valid: true}
	}

	var err error
	if rec.SubActions, err = json.Marshal(r.SubActions); err != nil {
		return receiptRecord{}, fmt.Errorf("failed to marshal sub_actions: %w", err)
	}
	if rec.Credited, err = json.Marshal(r.Credited); err != nil {
		return receiptRecord{}, fmt.Errorf("failed to marshal credited: %w", err)
	}
	if rec.ToVault, err = json.Marshal(r.ToVault); err != nil {
		return receiptRecord{}, fmt.Errorf("failed to marshal to_vault: %w", err)
	}
	return rec, nil
}

func decodeReceipt(receiptID int64, rec receiptRecord) (types.ActionReceipt, error) {
	r := types.ActionReceipt{
		ReceiptID: receiptID,
		ActionID:  rec.ActionID,
		Operation: rec.Operation,
		Success:   rec.Success,
		ErrorKind: rec.ErrorKind.String,
		Message:   rec.Message.String,
		Timestamp: rec.Timestamp.UTC(),
		Duration:  time.Duration(rec.DurationMS) * time.Millisecond,
	}
	if err := r.Caller.UnmarshalText([]byte(rec.Caller)); err != nil {
		return types.ActionReceipt{}, fmt.Errorf("failed to parse caller: %w", err)
	}
	if rec.Width.Valid {
		w, err := types.ParseWidthClass(rec.Width.String)
		if err != nil {
			return types.ActionReceipt{}, err
		}
		r.Width = &w
	}
	if len(rec.SubActions) > 0 {
		if err := json.Unmarshal(rec.SubActions, &r.SubActions); err != nil {
			return types.ActionReceipt{}, fmt.Errorf("failed to unmarshal sub_actions: %w", err)
		}
	}
	if len(rec.Credited) > 0 {
		if err := json.Unmarshal(rec.Credited, &r.Credited); err != nil {
			return types.ActionReceipt{}, fmt.Errorf("failed to unmarshal credited: %w", err)
		}
	}
	if len(rec.ToVault) > 0 {
		if err := json.Unmarshal(rec.ToVault, &r.ToVault); err != nil {
			return types.ActionReceipt{}, fmt.Errorf("failed to unmarshal to_vault: %w", err)
		}
	}
	return r, nil
}

// SaveReceipt inserts the receipt and sets its ReceiptID.
func (s *PostgresStore) SaveReceipt(ctx context.Context, receipt *types.ActionReceipt) error {
	rec, err := encodeReceipt(receipt)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO action_receipts (
			action_id, action_timestamp, operation, width, caller,
			success, error_kind, message, duration_ms,
			tokens, sub_actions, credited, to_vault
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING receipt_id;
	`
	err = s.db.QueryRowContext(ctx, query,
		rec.ActionID, rec.Timestamp, rec.Operation, rec.Width, rec.Caller,
		rec.Success, rec.ErrorKind, rec.Message, rec.DurationMS,
		pq.Array(rec.Tokens), rec.SubActions, rec.Credited, rec.ToVault,
	).Scan(&receipt.ReceiptID)
	if err != nil {
		return fmt.Errorf("failed to save action receipt: %w", err)
	}

	log.Debug().
		Int64("receipt_id", receipt.ReceiptID).
		Str("action_id", receipt.ActionID).
		Str("operation", receipt.Operation).
		Msg("Action receipt saved to database")
	return nil
}

// RecentReceipts retrieves recent receipts with pagination, newest first.
func (s *PostgresStore) RecentReceipts(ctx context.Context, limit int) ([]types.ActionReceipt, error) {
	limit = clampLimit(limit)

	query := `
		SELECT
			receipt_id, action_id, action_timestamp, operation, width, caller,
			success, error_kind, message, duration_ms,
			tokens, sub_actions, credited, to_vault
		FROM action_receipts
		ORDER BY action_timestamp DESC, receipt_id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]types.ActionReceipt, 0, limit)
	for rows.Next() {
		var (
			id  int64
			rec receiptRecord
		)
		err := rows.Scan(
			&id, &rec.ActionID, &rec.Timestamp, &rec.Operation, &rec.Width, &rec.Caller,
			&rec.Success, &rec.ErrorKind, &rec.Message, &rec.DurationMS,
			pq.Array(&rec.Tokens), &rec.SubActions, &rec.Credited, &rec.ToVault,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to scan receipt row")
			continue // Skip this row and continue with others
		}
		r, err := decodeReceipt(id, rec)
		if err != nil {
			log.Error().Err(err).Int64("receipt_id", id).Msg("Failed to decode receipt")
			continue
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	log.Debug().Int("count", len(receipts)).Int("limit", limit).Msg("Retrieved recent receipts")
	return receipts, nil
}

// Summary aggregates the receipt table.
func (s *PostgresStore) Summary(ctx context.Context) (Summary, error) {
	summary := Summary{ByOperation: make(map[string]OperationStats)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			operation,
			COUNT(*) AS total,
			COUNT(CASE WHEN NOT success THEN 1 END) AS failed,
			MAX(action_timestamp) AS last_at
		FROM action_receipts
		GROUP BY operation
	`)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to aggregate receipts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			op     string
			stats  OperationStats
			lastAt time.Time
		)
		if err := rows.Scan(&op, &stats.Total, &stats.Failed, &lastAt); err != nil {
			return Summary{}, fmt.Errorf("failed to scan receipt aggregate: %w", err)
		}
		summary.ByOperation[op] = stats
		summary.TotalActions += stats.Total
		summary.FailedActions += stats.Failed
		if summary.LastActionAt == nil || lastAt.After(*summary.LastActionAt) {
			ts := lastAt.UTC()
			summary.LastActionAt = &ts
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("error during row iteration: %w", err)
	}
	summary.SuccessfulActions = summary.TotalActions - summary.FailedActions

	// to_vault amounts can exceed BIGINT, so they are summed in Go
	vaultRows, err := s.db.QueryContext(ctx,
		`SELECT to_vault FROM action_receipts WHERE success AND to_vault IS NOT NULL AND to_vault != 'null'::jsonb`)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to query vault deposits: %w", err)
	}
	defer vaultRows.Close()
	for vaultRows.Next() {
		var raw []byte
		if err := vaultRows.Scan(&raw); err != nil {
			return Summary{}, fmt.Errorf("failed to scan vault deposits: %w", err)
		}
		var amounts []types.TokenAmount
		if err := json.Unmarshal(raw, &amounts); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal vault deposits")
			continue
		}
		summary.FeesToVault = addAmounts(summary.FeesToVault, amounts)
	}
	if err := vaultRows.Err(); err != nil {
		return Summary{}, fmt.Errorf("error during row iteration: %w", err)
	}

	summary.Sweeps, err = s.currentSweep(ctx)
	if err != nil {
		return Summary{}, err
	}
	return summary, nil
}
