package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
)

const walletColumns = `id, user_id, balance, reserved_balance, currency, status,
	created_at, updated_at`

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetOrCreate returns the user's wallet, inserting a zero-balance row first
// if none exists. Wallet creation is not a ledger event.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_wallets (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: insert: %w", err)
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM credit_wallets WHERE user_id = $1`, userID,
	)
	w, err := scanWallet(row)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreate: %w", err)
	}
	return w, nil
}

// GetOrCreateForUpdate is the transactional variant: the returned row is
// locked, serializing all balance mutations for the user.
func (r *WalletRepository) GetOrCreateForUpdate(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO credit_wallets (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateForUpdate: insert: %w", err)
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM credit_wallets WHERE user_id = $1 FOR UPDATE`, userID,
	)
	w, err := scanWallet(row)
	if err != nil {
		return nil, fmt.Errorf("GetOrCreateForUpdate: %w", err)
	}
	return w, nil
}

func (r *WalletRepository) UpdateBalances(ctx context.Context, tx *sql.Tx, userID uuid.UUID, balance, reserved int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE credit_wallets SET balance = $1, reserved_balance = $2, updated_at = now()
		WHERE user_id = $3`,
		balance, reserved, userID,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalances: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalances: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalances: %w", domain.ErrNotFound)
	}
	return nil
}

type WalletStats struct {
	TotalWallets    int64
	TotalBalance    int64
	TotalReserved   int64
	FrozenWallets   int64
	PendingDeposits int64
	PendingRefunds  int64
}

func (r *WalletRepository) Stats(ctx context.Context) (*WalletStats, error) {
	var s WalletStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM credit_wallets),
			(SELECT COALESCE(SUM(balance), 0) FROM credit_wallets),
			(SELECT COALESCE(SUM(reserved_balance), 0) FROM credit_wallets),
			(SELECT COUNT(*) FROM credit_wallets WHERE status = 'frozen'),
			(SELECT COUNT(*) FROM deposit_intents WHERE status = 'awaiting_payment'),
			(SELECT COUNT(*) FROM credit_refunds WHERE status = 'pending')`,
	).Scan(
		&s.TotalWallets, &s.TotalBalance, &s.TotalReserved,
		&s.FrozenWallets, &s.PendingDeposits, &s.PendingRefunds,
	)
	if err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}
	return &s, nil
}

func scanWallet(s scanner) (*domain.Wallet, error) {
	var w domain.Wallet
	err := s.Scan(
		&w.ID, &w.UserID, &w.Balance, &w.ReservedBalance,
		&w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}
