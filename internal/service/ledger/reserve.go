package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/logging"
)

// Reserve earmarks credits for an in-flight commitment. The total exposure
// (balance + reserved) is unchanged; no ledger row is written.
func (s *Service) Reserve(ctx context.Context, userID uuid.UUID, amount int64) (*domain.Wallet, error) {
	w, err := s.shift(ctx, userID, amount, true)
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}
	return w, nil
}

// Release returns previously reserved credits to the spendable balance.
func (s *Service) Release(ctx context.Context, userID uuid.UUID, amount int64) (*domain.Wallet, error) {
	w, err := s.shift(ctx, userID, amount, false)
	if err != nil {
		return nil, fmt.Errorf("Release: %w", err)
	}
	return w, nil
}

func (s *Service) shift(ctx context.Context, userID uuid.UUID, amount int64, toReserved bool) (*domain.Wallet, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	w, err := s.wallets.GetOrCreateForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if w.Status == domain.WalletStatusFrozen {
		return nil, domain.ErrWalletFrozen
	}

	if toReserved {
		if w.Balance < amount {
			return nil, domain.ErrInsufficientBalance
		}
		w.Balance -= amount
		w.ReservedBalance += amount
	} else {
		if w.ReservedBalance < amount {
			return nil, domain.ErrInsufficientReserved
		}
		w.Balance += amount
		w.ReservedBalance -= amount
	}

	if err := s.wallets.UpdateBalances(ctx, tx, userID, w.Balance, w.ReservedBalance); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	logging.FromContext(ctx).Info("reservation updated",
		"user_id", userID,
		"balance", w.Balance,
		"reserved_balance", w.ReservedBalance,
	)

	return w, nil
}
