package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientReserved = errors.New("insufficient reserved balance")
	ErrWalletFrozen         = errors.New("wallet frozen")
	ErrInvalidAmount        = errors.New("amount must be a nonzero integer")
	ErrInvalidPercentage    = errors.New("refund percentage must be between 0 and 100")
	ErrIdempotencyConflict  = errors.New("idempotency key reused with different parameters")
	ErrInvalidState         = errors.New("transition not allowed from current state")
	ErrInvalidRequest       = errors.New("invalid request")
)
