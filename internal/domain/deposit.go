package domain

import (
	"time"

	"github.com/google/uuid"
)

type DepositStatus string

const (
	DepositStatusAwaitingPayment DepositStatus = "awaiting_payment"
	DepositStatusMatched         DepositStatus = "matched"
	DepositStatusExpired         DepositStatus = "expired"
	DepositStatusCancelled       DepositStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s DepositStatus) IsTerminal() bool {
	switch s {
	case DepositStatusMatched, DepositStatusExpired, DepositStatusCancelled:
		return true
	default:
		return false
	}
}

// DepositIntent is an expected manual bank transfer. The UniqueReference is
// what the payer quotes so an operator can tie an incoming payment back to
// the intent.
type DepositIntent struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	AmountExpected  int64
	UniqueReference string
	Status          DepositStatus
	PackageID       *string
	MatchedOrderID  *string
	ExpiresAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
