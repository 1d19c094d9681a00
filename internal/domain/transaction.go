package domain

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// DirectionOf derives the stored direction tag from a signed amount.
func DirectionOf(amount int64) Direction {
	if amount < 0 {
		return DirectionDebit
	}
	return DirectionCredit
}

// CreditType partitions the single numeric balance for reporting; it does not
// create separate pools.
type CreditType string

const (
	CreditTypeJobPosting      CreditType = "job_posting"
	CreditTypeAIMatching      CreditType = "ai_matching"
	CreditTypeCandidateSearch CreditType = "candidate_search"
	CreditTypeAlert           CreditType = "alert"
	CreditTypeDeposit         CreditType = "deposit"
	CreditTypeRefund          CreditType = "refund"
)

// Transaction is an append-only ledger record. IDs are assigned by the store
// in application order: replaying a user's transactions by ascending ID and
// summing Amount reproduces every RunningBalance.
type Transaction struct {
	ID             int64
	UserID         uuid.UUID
	Amount         int64
	Direction      Direction
	RunningBalance int64
	IdempotencyKey *string
	CreditType     CreditType
	Description    string
	CreatedAt      time.Time
}
