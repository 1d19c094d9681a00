package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
)

const refundColumns = `id, user_id, original_transaction_id, refund_amount,
	refund_percentage, reason, status, approved_by, created_at, processed_at`

type RefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_refunds (
			id, user_id, original_transaction_id, refund_amount,
			refund_percentage, reason, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		refund.ID, refund.UserID, refund.OriginalTransactionID, refund.RefundAmount,
		refund.RefundPercentage, refund.Reason, refund.Status,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *RefundRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+refundColumns+` FROM credit_refunds WHERE id = $1`, id,
	)
	rf, err := scanRefund(row)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return rf, nil
}

func (r *RefundRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Refund, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+refundColumns+` FROM credit_refunds WHERE id = $1 FOR UPDATE`, id,
	)
	rf, err := scanRefund(row)
	if err != nil {
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return rf, nil
}

func (r *RefundRepository) MarkProcessed(ctx context.Context, tx *sql.Tx, id, approvedBy uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE credit_refunds
		SET status = $1, approved_by = $2, processed_at = now()
		WHERE id = $3`,
		domain.RefundStatusProcessed, approvedBy, id,
	)
	if err != nil {
		return fmt.Errorf("MarkProcessed: %w", err)
	}
	return nil
}

func (r *RefundRepository) MarkRejected(ctx context.Context, tx *sql.Tx, id, approvedBy uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE credit_refunds
		SET status = $1, approved_by = $2, processed_at = now()
		WHERE id = $3`,
		domain.RefundStatusRejected, approvedBy, id,
	)
	if err != nil {
		return fmt.Errorf("MarkRejected: %w", err)
	}
	return nil
}

func (r *RefundRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Refund, error) {
	return r.list(ctx,
		`SELECT `+refundColumns+` FROM credit_refunds
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *RefundRepository) ListByStatus(ctx context.Context, status domain.RefundStatus) ([]domain.Refund, error) {
	return r.list(ctx,
		`SELECT `+refundColumns+` FROM credit_refunds
		WHERE status = $1 ORDER BY created_at DESC`, status)
}

func (r *RefundRepository) list(ctx context.Context, query string, arg any) ([]domain.Refund, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		rf, err := scanRefund(rows)
		if err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		refunds = append(refunds, *rf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}
	return refunds, nil
}

func scanRefund(s scanner) (*domain.Refund, error) {
	var rf domain.Refund
	var approvedBy uuid.NullUUID
	err := s.Scan(
		&rf.ID, &rf.UserID, &rf.OriginalTransactionID, &rf.RefundAmount,
		&rf.RefundPercentage, &rf.Reason, &rf.Status, &approvedBy,
		&rf.CreatedAt, &rf.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if approvedBy.Valid {
		rf.ApprovedBy = &approvedBy.UUID
	}
	return &rf, nil
}
