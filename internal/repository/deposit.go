package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
)

const depositColumns = `id, user_id, amount_expected, unique_reference, status,
	package_id, matched_order_id, expires_at, created_at, updated_at`

type DepositRepository struct {
	db *sql.DB
}

func NewDepositRepository(db *sql.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(ctx context.Context, intent *domain.DepositIntent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deposit_intents (
			id, user_id, amount_expected, unique_reference, status,
			package_id, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		intent.ID, intent.UserID, intent.AmountExpected, intent.UniqueReference,
		intent.Status, intent.PackageID, intent.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *DepositRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositIntent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+depositColumns+` FROM deposit_intents WHERE id = $1`, id,
	)
	d, err := scanDepositIntent(row)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return d, nil
}

func (r *DepositRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.DepositIntent, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+depositColumns+` FROM deposit_intents WHERE id = $1 FOR UPDATE`, id,
	)
	d, err := scanDepositIntent(row)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return d, nil
}

func (r *DepositRepository) MarkMatched(ctx context.Context, tx *sql.Tx, id uuid.UUID, matchedOrderID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE deposit_intents
		SET status = $1, matched_order_id = $2, updated_at = now()
		WHERE id = $3`,
		domain.DepositStatusMatched, matchedOrderID, id,
	)
	if err != nil {
		return fmt.Errorf("MarkMatched: %w", err)
	}
	return nil
}

func (r *DepositRepository) MarkCancelled(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE deposit_intents SET status = $1, updated_at = now() WHERE id = $2`,
		domain.DepositStatusCancelled, id,
	)
	if err != nil {
		return fmt.Errorf("MarkCancelled: %w", err)
	}
	return nil
}

func (r *DepositRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.DepositIntent, error) {
	return r.list(ctx,
		`SELECT `+depositColumns+` FROM deposit_intents
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *DepositRepository) ListByStatus(ctx context.Context, status domain.DepositStatus) ([]domain.DepositIntent, error) {
	return r.list(ctx,
		`SELECT `+depositColumns+` FROM deposit_intents
		WHERE status = $1 ORDER BY created_at DESC`, status)
}

// ExpireOverdue flips awaiting_payment intents past their expiry to expired.
// It deliberately never touches wallets or the ledger.
func (r *DepositRepository) ExpireOverdue(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE deposit_intents
		SET status = $1, updated_at = now()
		WHERE status = $2 AND expires_at < now()`,
		domain.DepositStatusExpired, domain.DepositStatusAwaitingPayment,
	)
	if err != nil {
		return 0, fmt.Errorf("ExpireOverdue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ExpireOverdue: rows affected: %w", err)
	}
	return n, nil
}

func (r *DepositRepository) list(ctx context.Context, query string, arg any) ([]domain.DepositIntent, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var intents []domain.DepositIntent
	for rows.Next() {
		d, err := scanDepositIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		intents = append(intents, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}
	return intents, nil
}

func scanDepositIntent(s scanner) (*domain.DepositIntent, error) {
	var d domain.DepositIntent
	err := s.Scan(
		&d.ID, &d.UserID, &d.AmountExpected, &d.UniqueReference, &d.Status,
		&d.PackageID, &d.MatchedOrderID, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
