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

type depositService interface {
	CreateIntent(ctx context.Context, userID uuid.UUID, amountExpected int64, packageID *string) (*domain.DepositIntent, error)
	CancelIntent(ctx context.Context, userID, intentID uuid.UUID) (*domain.DepositIntent, error)
	ListUserIntents(ctx context.Context, userID uuid.UUID) ([]domain.DepositIntent, error)
}

// BankDetails is the static payment instruction block returned with every
// new intent, so the payer knows where to send the transfer.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

type DepositHandler struct {
	deposits depositService
	bank     BankDetails
}

func NewDepositHandler(deposits depositService, bank BankDetails) *DepositHandler {
	return &DepositHandler{deposits: deposits, bank: bank}
}

type createDepositRequest struct {
	Amount    int64   `json:"amount"`
	PackageID *string `json:"package_id"`
}

func (r createDepositRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than zero"})
	}
	return errs
}

type depositIntentDTO struct {
	ID              uuid.UUID `json:"id"`
	AmountExpected  int64     `json:"amount_expected"`
	UniqueReference string    `json:"unique_reference"`
	Status          string    `json:"status"`
	PackageID       *string   `json:"package_id,omitempty"`
	MatchedOrderID  *string   `json:"matched_order_id,omitempty"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
}

func toDepositIntentDTO(i *domain.DepositIntent) depositIntentDTO {
	return depositIntentDTO{
		ID:              i.ID,
		AmountExpected:  i.AmountExpected,
		UniqueReference: i.UniqueReference,
		Status:          string(i.Status),
		PackageID:       i.PackageID,
		MatchedOrderID:  i.MatchedOrderID,
		ExpiresAt:       i.ExpiresAt,
		CreatedAt:       i.CreatedAt,
	}
}

func (h *DepositHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	var req createDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	intent, err := h.deposits.CreateIntent(r.Context(), userID, req.Amount, req.PackageID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, map[string]any{
		"intent":       toDepositIntentDTO(intent),
		"bank_details": h.bank,
	})
}

func (h *DepositHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	intentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	intent, err := h.deposits.CancelIntent(r.Context(), userID, intentID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toDepositIntentDTO(intent))
}

func (h *DepositHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	intents, err := h.deposits.ListUserIntents(r.Context(), userID)
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
