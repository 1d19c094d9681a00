package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
)

const transactionColumns = `id, user_id, amount, direction, running_balance,
	idempotency_key, credit_type, description, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Insert appends a ledger row and fills in the assigned ID and timestamp.
// A unique violation on the idempotency key surfaces to the caller, which
// resolves it by re-reading the winning row.
func (r *TransactionRepository) Insert(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO credit_transactions (
			user_id, amount, direction, running_balance,
			idempotency_key, credit_type, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		t.UserID, t.Amount, t.Direction, t.RunningBalance,
		t.IdempotencyKey, t.CreditType, t.Description,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM credit_transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM credit_transactions WHERE idempotency_key = $1`, key,
	)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("GetByIdempotencyKey: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credit_transactions WHERE user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM credit_transactions
		WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByUser: scan: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return txs, total, nil
}

// ReplayEntry is the slice of a ledger row the running-balance replay reads.
// RunningBalance stays nullable here so an untouched legacy row is
// distinguishable from a row whose balance is genuinely zero.
type ReplayEntry struct {
	ID             int64
	Amount         int64
	RunningBalance sql.NullInt64
}

// ListForReplay returns all of a user's ledger rows in application order.
func (r *TransactionRepository) ListForReplay(ctx context.Context, tx *sql.Tx, userID uuid.UUID) ([]ReplayEntry, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, amount, running_balance FROM credit_transactions
		WHERE user_id = $1 ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListForReplay: %w", err)
	}
	defer rows.Close()

	var entries []ReplayEntry
	for rows.Next() {
		var e ReplayEntry
		if err := rows.Scan(&e.ID, &e.Amount, &e.RunningBalance); err != nil {
			return nil, fmt.Errorf("ListForReplay: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListForReplay: rows: %w", err)
	}
	return entries, nil
}

func (r *TransactionRepository) DistinctUserIDs(ctx context.Context, tx *sql.Tx) ([]uuid.UUID, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM credit_transactions ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("DistinctUserIDs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("DistinctUserIDs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DistinctUserIDs: rows: %w", err)
	}
	return ids, nil
}

// BackfillDirections tags pre-wallet rows with a direction derived from the
// sign of amount. Zero-amount rows become CREDIT by policy.
func (r *TransactionRepository) BackfillDirections(ctx context.Context, tx *sql.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE credit_transactions
		SET direction = CASE WHEN amount < 0 THEN 'DEBIT' ELSE 'CREDIT' END
		WHERE direction IS NULL`,
	)
	if err != nil {
		return 0, fmt.Errorf("BackfillDirections: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("BackfillDirections: rows affected: %w", err)
	}
	return n, nil
}

func (r *TransactionRepository) SetRunningBalance(ctx context.Context, tx *sql.Tx, id, runningBalance int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE credit_transactions SET running_balance = $1 WHERE id = $2`,
		runningBalance, id,
	)
	if err != nil {
		return fmt.Errorf("SetRunningBalance: %w", err)
	}
	return nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var direction sql.NullString
	var runningBalance sql.NullInt64
	err := s.Scan(
		&t.ID, &t.UserID, &t.Amount, &direction, &runningBalance,
		&t.IdempotencyKey, &t.CreditType, &t.Description, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	// direction/running_balance are nullable only for legacy rows that the
	// backfill has not touched yet.
	if direction.Valid {
		t.Direction = domain.Direction(direction.String)
	}
	if runningBalance.Valid {
		t.RunningBalance = runningBalance.Int64
	}
	return &t, nil
}
