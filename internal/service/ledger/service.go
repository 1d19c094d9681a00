// Package ledger is the single authoritative entry point for mutating a
// wallet's balance. Every mutation appends an immutable transaction row and
// updates the wallet aggregate in the same database transaction.
package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/repository"
)

type walletRepo interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	GetOrCreateForUpdate(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (*domain.Wallet, error)
	UpdateBalances(ctx context.Context, tx *sql.Tx, userID uuid.UUID, balance, reserved int64) error
	Stats(ctx context.Context) (*repository.WalletStats, error)
}

type transactionRepo interface {
	Insert(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
}

type Service struct {
	wallets      walletRepo
	transactions transactionRepo
	db           *sql.DB
}

func NewService(wallets walletRepo, transactions transactionRepo, db *sql.DB) *Service {
	return &Service{
		wallets:      wallets,
		transactions: transactions,
		db:           db,
	}
}

// GetBalance returns the user's wallet, creating a zero-balance one on first
// read. Creation is not a ledger event.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	w, err := s.wallets.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	return w, nil
}

func (s *Service) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	return t, nil
}

func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	txs, total, err := s.transactions.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, total, nil
}

func (s *Service) Stats(ctx context.Context) (*repository.WalletStats, error) {
	stats, err := s.wallets.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("Stats: %w", err)
	}
	return stats, nil
}
