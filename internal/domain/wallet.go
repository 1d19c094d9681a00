package domain

import (
	"time"

	"github.com/google/uuid"
)

// Currency tags a wallet for display purposes only. Balances are integer
// credit units, not fractional currency amounts.
type Currency string

const CurrencyPGK Currency = "PGK"

type WalletStatus string

const (
	WalletStatusActive WalletStatus = "active"
	WalletStatusFrozen WalletStatus = "frozen"
)

// Wallet is the per-user credit aggregate. Balance is only ever mutated
// through the ledger service; balance + reserved_balance is conserved by
// reserve/release.
type Wallet struct {
	ID              int64
	UserID          uuid.UUID
	Balance         int64
	ReservedBalance int64
	Currency        Currency
	Status          WalletStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
