package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "Admin access required"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInsufficientBalance  = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Insufficient credit balance"}
	ErrInsufficientReserved = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_RESERVED", "Insufficient reserved balance"}
	ErrWalletFrozen         = &AppError{http.StatusUnprocessableEntity, "WALLET_FROZEN", "Wallet is frozen"}
	ErrInvalidAmount        = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a nonzero integer"}
	ErrInvalidPercentage    = &AppError{http.StatusBadRequest, "INVALID_PERCENTAGE", "Refund percentage must be between 0 and 100"}
	ErrIdempotencyConflict  = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrInvalidState         = &AppError{http.StatusConflict, "INVALID_STATE", "Transition not allowed from current state"}
)
