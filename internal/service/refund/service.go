// Package refund implements partial and full refunds of ledger transactions.
// A refund is requested against an original transaction, held pending, and
// only moves money once an admin approves it.
package refund

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/logging"
	"github.com/wantokjobs/wallet-service/internal/service/ledger"
)

type refundRepo interface {
	Create(ctx context.Context, r *domain.Refund) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Refund, error)
	MarkProcessed(ctx context.Context, tx *sql.Tx, id uuid.UUID, approvedBy uuid.UUID) error
	MarkRejected(ctx context.Context, tx *sql.Tx, id uuid.UUID, approvedBy uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Refund, error)
	ListByStatus(ctx context.Context, status domain.RefundStatus) ([]domain.Refund, error)
}

type transactionGetter interface {
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
}

type ledgerPoster interface {
	PostTransactionTx(ctx context.Context, tx *sql.Tx, req ledger.PostRequest) (*domain.Transaction, error)
}

type Service struct {
	refunds      refundRepo
	transactions transactionGetter
	ledger       ledgerPoster
	db           *sql.DB
}

func NewService(refunds refundRepo, transactions transactionGetter, ledgerSvc ledgerPoster, db *sql.DB) *Service {
	return &Service{
		refunds:      refunds,
		transactions: transactions,
		ledger:       ledgerSvc,
		db:           db,
	}
}

// RequestRefund records a pending refund for a percentage of the original
// transaction's amount. Ownership is checked against the original row so one
// user cannot file refunds against another's ledger.
func (s *Service) RequestRefund(ctx context.Context, userID uuid.UUID, originalTxID int64, percentage float64, reason string) (*domain.Refund, error) {
	log := logging.FromContext(ctx)

	if percentage <= 0 || percentage > 100 {
		return nil, fmt.Errorf("RequestRefund: %w", domain.ErrInvalidPercentage)
	}

	original, err := s.transactions.GetByID(ctx, originalTxID)
	if err != nil {
		return nil, fmt.Errorf("RequestRefund: %w", err)
	}
	if original.UserID != userID {
		return nil, fmt.Errorf("RequestRefund: %w", domain.ErrNotFound)
	}

	amount := refundAmount(original.Amount, percentage)
	if amount == 0 {
		return nil, fmt.Errorf("RequestRefund: rounds to zero: %w", domain.ErrInvalidAmount)
	}

	r := &domain.Refund{
		ID:                    uuid.New(),
		UserID:                userID,
		OriginalTransactionID: originalTxID,
		RefundAmount:          amount,
		RefundPercentage:      percentage,
		Reason:                reason,
		Status:                domain.RefundStatusPending,
	}

	if err := s.refunds.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("RequestRefund: %w", err)
	}

	log.Info("refund requested",
		"refund_id", r.ID,
		"user_id", userID,
		"original_transaction_id", originalTxID,
		"refund_amount", amount,
		"percentage", percentage,
	)

	return r, nil
}

// ApproveRefund posts the refund to the ledger and marks it processed in one
// database transaction. The posting reverses the original's direction: a
// refunded spend credits the wallet, a refunded credit debits it back out.
// The ledger key refund:<refundID> makes approval safe to retry.
func (s *Service) ApproveRefund(ctx context.Context, refundID, approvedBy uuid.UUID) (*domain.Refund, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ApproveRefund: begin tx: %w", err)
	}
	defer tx.Rollback()

	r, err := s.refunds.GetForUpdate(ctx, tx, refundID)
	if err != nil {
		return nil, fmt.Errorf("ApproveRefund: %w", err)
	}
	if r.Status != domain.RefundStatusPending {
		return nil, fmt.Errorf("ApproveRefund: refund is %s: %w", r.Status, domain.ErrInvalidState)
	}

	original, err := s.transactions.GetByID(ctx, r.OriginalTransactionID)
	if err != nil {
		return nil, fmt.Errorf("ApproveRefund: %w", err)
	}

	amount := r.RefundAmount
	if original.Direction == domain.DirectionCredit {
		amount = -amount
	}

	t, err := s.ledger.PostTransactionTx(ctx, tx, ledger.PostRequest{
		UserID:         r.UserID,
		Amount:         amount,
		CreditType:     domain.CreditTypeRefund,
		IdempotencyKey: fmt.Sprintf("refund:%s", r.ID),
		Description:    fmt.Sprintf("Refund %.0f%% of transaction %d", r.RefundPercentage, r.OriginalTransactionID),
	})
	if err != nil {
		return nil, fmt.Errorf("ApproveRefund: %w", err)
	}

	if err := s.refunds.MarkProcessed(ctx, tx, refundID, approvedBy); err != nil {
		return nil, fmt.Errorf("ApproveRefund: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ApproveRefund: commit: %w", err)
	}

	log.Info("refund approved",
		"refund_id", refundID,
		"approved_by", approvedBy,
		"transaction_id", t.ID,
		"amount", amount,
	)

	r.Status = domain.RefundStatusProcessed
	r.ApprovedBy = &approvedBy
	now := time.Now().UTC()
	r.ProcessedAt = &now
	return r, nil
}

// RejectRefund closes a pending refund without moving money.
func (s *Service) RejectRefund(ctx context.Context, refundID, rejectedBy uuid.UUID) (*domain.Refund, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("RejectRefund: begin tx: %w", err)
	}
	defer tx.Rollback()

	r, err := s.refunds.GetForUpdate(ctx, tx, refundID)
	if err != nil {
		return nil, fmt.Errorf("RejectRefund: %w", err)
	}
	if r.Status != domain.RefundStatusPending {
		return nil, fmt.Errorf("RejectRefund: refund is %s: %w", r.Status, domain.ErrInvalidState)
	}

	if err := s.refunds.MarkRejected(ctx, tx, refundID, rejectedBy); err != nil {
		return nil, fmt.Errorf("RejectRefund: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("RejectRefund: commit: %w", err)
	}

	logging.FromContext(ctx).Info("refund rejected", "refund_id", refundID, "rejected_by", rejectedBy)

	r.Status = domain.RefundStatusRejected
	r.ApprovedBy = &rejectedBy
	return r, nil
}

func (s *Service) GetRefund(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	r, err := s.refunds.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetRefund: %w", err)
	}
	return r, nil
}

func (s *Service) ListUserRefunds(ctx context.Context, userID uuid.UUID) ([]domain.Refund, error) {
	rs, err := s.refunds.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListUserRefunds: %w", err)
	}
	return rs, nil
}

func (s *Service) ListRefundsByStatus(ctx context.Context, status domain.RefundStatus) ([]domain.Refund, error) {
	rs, err := s.refunds.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("ListRefundsByStatus: %w", err)
	}
	return rs, nil
}

// refundAmount computes the refundable credits from the original amount and a
// percentage, rounding half away from zero so 12.5 becomes 13.
func refundAmount(originalAmount int64, percentage float64) int64 {
	abs := originalAmount
	if abs < 0 {
		abs = -abs
	}
	return decimal.NewFromInt(abs).
		Mul(decimal.NewFromFloat(percentage)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
