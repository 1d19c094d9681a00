package domain

import (
	"time"

	"github.com/google/uuid"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusRejected  RefundStatus = "rejected"
)

// Refund records a requested reversal of a prior ledger transaction. The
// record itself is the idempotency boundary for approval: the ledger posting
// uses a key derived from the refund ID.
type Refund struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	OriginalTransactionID int64
	RefundAmount          int64
	RefundPercentage      float64
	Reason                string
	Status                RefundStatus
	ApprovedBy            *uuid.UUID
	CreatedAt             time.Time
	ProcessedAt           *time.Time
}
