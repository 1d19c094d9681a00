package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/logging"
	"github.com/wantokjobs/wallet-service/internal/repository"
)

// PostRequest describes a single balance mutation. Amount is signed:
// positive credits, negative debits. IdempotencyKey is optional; when empty
// the posting is not replay-protected, which is reserved for trusted internal
// callers. Externally triggered postings must always carry a key.
type PostRequest struct {
	UserID         uuid.UUID
	Amount         int64
	CreditType     domain.CreditType
	IdempotencyKey string
	Description    string
}

// PostTransaction applies a mutation in its own database transaction.
//
// Presenting an already-used key with the same user and amount is a replay:
// the stored transaction is returned and nothing changes. The same key with
// different parameters is a client bug and fails with ErrIdempotencyConflict.
func (s *Service) PostTransaction(ctx context.Context, req PostRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if req.Amount == 0 {
		return nil, fmt.Errorf("PostTransaction: %w", domain.ErrInvalidAmount)
	}

	if req.IdempotencyKey != "" {
		existing, err := s.transactions.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err == nil {
			return s.replay(existing, req)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("PostTransaction: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("PostTransaction: begin tx: %w", err)
	}
	defer tx.Rollback()

	t, err := s.apply(ctx, tx, req)
	if err != nil {
		// Lost the insert race on the key's unique index: another writer
		// committed first, so this call becomes a replay of its row.
		if req.IdempotencyKey != "" && repository.IsUniqueViolation(err) {
			tx.Rollback()
			existing, lookupErr := s.transactions.GetByIdempotencyKey(ctx, req.IdempotencyKey)
			if lookupErr != nil {
				return nil, fmt.Errorf("PostTransaction: resolve duplicate key: %w", lookupErr)
			}
			return s.replay(existing, req)
		}
		return nil, fmt.Errorf("PostTransaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("PostTransaction: commit: %w", err)
	}

	log.Info("transaction posted",
		"transaction_id", t.ID,
		"user_id", req.UserID,
		"amount", req.Amount,
		"credit_type", req.CreditType,
		"running_balance", t.RunningBalance,
	)

	return t, nil
}

// PostTransactionTx applies a mutation inside the caller's transaction, so a
// state transition (deposit match, refund approval) and its ledger posting
// commit or roll back as one unit.
func (s *Service) PostTransactionTx(ctx context.Context, tx *sql.Tx, req PostRequest) (*domain.Transaction, error) {
	if req.Amount == 0 {
		return nil, fmt.Errorf("PostTransactionTx: %w", domain.ErrInvalidAmount)
	}
	t, err := s.apply(ctx, tx, req)
	if err != nil {
		return nil, fmt.Errorf("PostTransactionTx: %w", err)
	}
	return t, nil
}

// apply holds the wallet row lock for the duration of the mutation, which is
// what serializes concurrent writers for the same user.
func (s *Service) apply(ctx context.Context, tx *sql.Tx, req PostRequest) (*domain.Transaction, error) {
	w, err := s.wallets.GetOrCreateForUpdate(ctx, tx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Amount < 0 && w.Status == domain.WalletStatusFrozen {
		return nil, domain.ErrWalletFrozen
	}

	newBalance := w.Balance + req.Amount
	if newBalance < 0 {
		return nil, domain.ErrInsufficientBalance
	}

	t := &domain.Transaction{
		UserID:         req.UserID,
		Amount:         req.Amount,
		Direction:      domain.DirectionOf(req.Amount),
		RunningBalance: newBalance,
		CreditType:     req.CreditType,
		Description:    req.Description,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		t.IdempotencyKey = &key
	}

	if err := s.transactions.Insert(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := s.wallets.UpdateBalances(ctx, tx, req.UserID, newBalance, w.ReservedBalance); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) replay(existing *domain.Transaction, req PostRequest) (*domain.Transaction, error) {
	if existing.UserID != req.UserID || existing.Amount != req.Amount {
		return nil, fmt.Errorf("replay: %w", domain.ErrIdempotencyConflict)
	}
	return existing, nil
}
