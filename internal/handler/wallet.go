package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/auth"
	"github.com/wantokjobs/wallet-service/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	recentTxLimit   = 10
)

type walletReader interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
}

type WalletHandler struct {
	ledger walletReader
}

func NewWalletHandler(ledger walletReader) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

type walletDTO struct {
	UserID          uuid.UUID `json:"user_id"`
	Balance         int64     `json:"balance"`
	ReservedBalance int64     `json:"reserved_balance"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
}

type transactionDTO struct {
	ID             int64     `json:"id"`
	Amount         int64     `json:"amount"`
	Direction      string    `json:"direction"`
	RunningBalance int64     `json:"running_balance"`
	CreditType     string    `json:"credit_type"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

func toWalletDTO(w *domain.Wallet) walletDTO {
	return walletDTO{
		UserID:          w.UserID,
		Balance:         w.Balance,
		ReservedBalance: w.ReservedBalance,
		Currency:        string(w.Currency),
		Status:          string(w.Status),
	}
}

func toTransactionDTOs(txs []domain.Transaction) []transactionDTO {
	dtos := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		dtos = append(dtos, transactionDTO{
			ID:             t.ID,
			Amount:         t.Amount,
			Direction:      string(t.Direction),
			RunningBalance: t.RunningBalance,
			CreditType:     string(t.CreditType),
			Description:    t.Description,
			CreatedAt:      t.CreatedAt,
		})
	}
	return dtos
}

// Get returns the wallet with a short slice of recent activity.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	wallet, err := h.ledger.GetBalance(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	txs, _, err := h.ledger.ListTransactions(r.Context(), userID, recentTxLimit, 0)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"wallet":              toWalletDTO(wallet),
		"recent_transactions": toTransactionDTOs(txs),
	})
}

func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrInvalidToken, nil)
		return
	}

	limit, offset := pagination(r)
	txs, total, err := h.ledger.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"transactions": toTransactionDTOs(txs),
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, maxPageSize)
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
