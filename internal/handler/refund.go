package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/auth"
	"github.com/wantokjobs/wallet-service/internal/domain"
)

type refundService interface {
	RequestRefund(ctx context.Context, userID uuid.UUID, originalTxID int64, percentage float64, reason string) (*domain.Refund, error)
	ListUserRefunds(ctx context.Context, userID uuid.UUID) ([]domain.Refund, error)
}

type RefundHandler struct {
	refunds refundService
}

func NewRefundHandler(refunds refundService) *RefundHandler {
	return &RefundHandler{refunds: refunds}
}

type requestRefundRequest struct {
	TransactionID int64   `json:"transaction_id"`
	Percentage    float64 `json:"percentage"`
	Reason        string  `json:"reason"`
}

func (r requestRefundRequest) Validate() []FieldError {
	var errs []FieldError
	if r.TransactionID <= 0 {
		errs = append(errs, FieldError{Field: "transaction_id", Message: "required"})
	}
	if r.Percentage <= 0 || r.Percentage > 100 {
		errs = append(errs, FieldError{Field: "percentage", Message: "must be between 0 and 100"})
	}
	if r.Reason == "" {
		errs = append(errs, FieldError{Field: "reason", Message: "required"})
	}
	return errs
}

type refundDTO struct {
	ID                    uuid.UUID  `json:"id"`
	OriginalTransactionID int64      `json:"original_transaction_id"`
	RefundAmount          int64      `json:"refund_amount"`
	RefundPercentage      float64    `json:"refund_percentage"`
	Reason                string     `json:"reason"`
	Status                string     `json:"status"`
	ApprovedBy            *uuid.UUID `json:"approved_by,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	ProcessedAt           *time.Time `json:"processed_at,omitempty"`
}

func toRefundDTO(r *domain.Refund) refundDTO {
	return refundDTO{
		ID:                    r.ID,
		OriginalTransactionID: r.OriginalTransactionID,
		RefundAmount:          r.RefundAmount,
		RefundPercentage:      r.RefundPercentage,
		Reason:                r.Reason,
		Status:                string(r.Status),
		ApprovedBy:            r.ApprovedBy,
		CreatedAt:             r.CreatedAt,
		ProcessedAt:           r.ProcessedAt,
	}
}

func (h *RefundHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	var req requestRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	refund, err := h.refunds.RequestRefund(r.Context(), userID, req.TransactionID, req.Percentage, req.Reason)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toRefundDTO(refund))
}

func (h *RefundHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	refunds, err := h.refunds.ListUserRefunds(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]refundDTO, 0, len(refunds))
	for i := range refunds {
		dtos = append(dtos, toRefundDTO(&refunds[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
