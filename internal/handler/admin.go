package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/auth"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/repository"
)

type adminDepositService interface {
	MatchIntent(ctx context.Context, intentID uuid.UUID, matchedOrderID string) (*domain.Transaction, error)
	ListIntentsByStatus(ctx context.Context, status domain.DepositStatus) ([]domain.DepositIntent, error)
}

type adminRefundService interface {
	ApproveRefund(ctx context.Context, refundID, approvedBy uuid.UUID) (*domain.Refund, error)
	RejectRefund(ctx context.Context, refundID, rejectedBy uuid.UUID) (*domain.Refund, error)
	ListRefundsByStatus(ctx context.Context, status domain.RefundStatus) ([]domain.Refund, error)
}

type statsReader interface {
	Stats(ctx context.Context) (*repository.WalletStats, error)
}

type AdminHandler struct {
	deposits adminDepositService
	refunds  adminRefundService
	ledger   statsReader
}

func NewAdminHandler(deposits adminDepositService, refunds adminRefundService, ledger statsReader) *AdminHandler {
	return &AdminHandler{
		deposits: deposits,
		refunds:  refunds,
		ledger:   ledger,
	}
}

func (h *AdminHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	status := domain.DepositStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.DepositStatusAwaitingPayment
	}

	intents, err := h.deposits.ListIntentsByStatus(r.Context(), status)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]depositIntentDTO, 0, len(intents))
	for i := range intents {
		dtos = append(dtos, toDepositIntentDTO(&intents[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

type matchDepositRequest struct {
	OrderID string `json:"order_id"`
}

func (r matchDepositRequest) Validate() []FieldError {
	var errs []FieldError
	if r.OrderID == "" {
		errs = append(errs, FieldError{Field: "order_id", Message: "required"})
	}
	return errs
}

func (h *AdminHandler) MatchDeposit(w http.ResponseWriter, r *http.Request) {
	intentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req matchDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.deposits.MatchIntent(r.Context(), intentID, req.OrderID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"transaction_id":  t.ID,
		"amount":          t.Amount,
		"running_balance": t.RunningBalance,
	})
}

func (h *AdminHandler) ListRefunds(w http.ResponseWriter, r *http.Request) {
	status := domain.RefundStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.RefundStatusPending
	}

	refunds, err := h.refunds.ListRefundsByStatus(r.Context(), status)
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

func (h *AdminHandler) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	h.decideRefund(w, r, h.refunds.ApproveRefund)
}

func (h *AdminHandler) RejectRefund(w http.ResponseWriter, r *http.Request) {
	h.decideRefund(w, r, h.refunds.RejectRefund)
}

func (h *AdminHandler) decideRefund(w http.ResponseWriter, r *http.Request, decide func(context.Context, uuid.UUID, uuid.UUID) (*domain.Refund, error)) {
	adminID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	refundID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	refund, err := decide(r.Context(), refundID, adminID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toRefundDTO(refund))
}

func (h *AdminHandler) WalletStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.Stats(r.Context())
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"total_wallets":    stats.TotalWallets,
		"total_balance":    stats.TotalBalance,
		"total_reserved":   stats.TotalReserved,
		"frozen_wallets":   stats.FrozenWallets,
		"pending_deposits": stats.PendingDeposits,
		"pending_refunds":  stats.PendingRefunds,
	})
}
