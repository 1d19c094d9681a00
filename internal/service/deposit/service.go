// Package deposit bridges out-of-band bank transfers into the ledger. An
// intent is created when a user requests a top-up, and credited only when an
// operator matches an incoming payment to its unique reference.
package deposit

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/logging"
	"github.com/wantokjobs/wallet-service/internal/repository"
	"github.com/wantokjobs/wallet-service/internal/service/ledger"
)

type depositRepo interface {
	Create(ctx context.Context, intent *domain.DepositIntent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DepositIntent, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.DepositIntent, error)
	MarkMatched(ctx context.Context, tx *sql.Tx, id uuid.UUID, matchedOrderID string) error
	MarkCancelled(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.DepositIntent, error)
	ListByStatus(ctx context.Context, status domain.DepositStatus) ([]domain.DepositIntent, error)
}

type ledgerPoster interface {
	PostTransactionTx(ctx context.Context, tx *sql.Tx, req ledger.PostRequest) (*domain.Transaction, error)
}

const referenceAttempts = 5

type Service struct {
	deposits depositRepo
	ledger   ledgerPoster
	db       *sql.DB
	expiry   time.Duration
}

func NewService(deposits depositRepo, ledgerSvc ledgerPoster, db *sql.DB, expiry time.Duration) *Service {
	return &Service{
		deposits: deposits,
		ledger:   ledgerSvc,
		db:       db,
		expiry:   expiry,
	}
}

// CreateIntent registers an expected bank transfer. The unique reference is
// what the payer must quote; generation retries on the (rare) collision.
func (s *Service) CreateIntent(ctx context.Context, userID uuid.UUID, amountExpected int64, packageID *string) (*domain.DepositIntent, error) {
	log := logging.FromContext(ctx)

	if amountExpected <= 0 {
		return nil, fmt.Errorf("CreateIntent: %w", domain.ErrInvalidAmount)
	}

	var lastErr error
	for range referenceAttempts {
		ref, err := generateReference()
		if err != nil {
			return nil, fmt.Errorf("CreateIntent: %w", err)
		}

		intent := &domain.DepositIntent{
			ID:              uuid.New(),
			UserID:          userID,
			AmountExpected:  amountExpected,
			UniqueReference: ref,
			Status:          domain.DepositStatusAwaitingPayment,
			PackageID:       packageID,
			ExpiresAt:       time.Now().UTC().Add(s.expiry),
		}

		if err := s.deposits.Create(ctx, intent); err != nil {
			if repository.IsUniqueViolation(err) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("CreateIntent: %w", err)
		}

		log.Info("deposit intent created",
			"intent_id", intent.ID,
			"user_id", userID,
			"amount_expected", amountExpected,
			"reference", ref,
		)
		return intent, nil
	}

	return nil, fmt.Errorf("CreateIntent: reference collisions exhausted: %w", lastErr)
}

// MatchIntent is called once an operator has independently confirmed the
// payment. The CREDIT posting and the status flip commit atomically; the
// ledger key deposit:<intentID> makes a retried match harmless.
func (s *Service) MatchIntent(ctx context.Context, intentID uuid.UUID, matchedOrderID string) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("MatchIntent: begin tx: %w", err)
	}
	defer tx.Rollback()

	intent, err := s.deposits.GetForUpdate(ctx, tx, intentID)
	if err != nil {
		return nil, fmt.Errorf("MatchIntent: %w", err)
	}

	if intent.Status.IsTerminal() {
		return nil, fmt.Errorf("MatchIntent: intent is %s: %w", intent.Status, domain.ErrInvalidState)
	}

	t, err := s.ledger.PostTransactionTx(ctx, tx, ledger.PostRequest{
		UserID:         intent.UserID,
		Amount:         intent.AmountExpected,
		CreditType:     domain.CreditTypeDeposit,
		IdempotencyKey: fmt.Sprintf("deposit:%s", intent.ID),
		Description:    fmt.Sprintf("Bank transfer deposit %s", intent.UniqueReference),
	})
	if err != nil {
		return nil, fmt.Errorf("MatchIntent: %w", err)
	}

	if err := s.deposits.MarkMatched(ctx, tx, intentID, matchedOrderID); err != nil {
		return nil, fmt.Errorf("MatchIntent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("MatchIntent: commit: %w", err)
	}

	log.Info("deposit intent matched",
		"intent_id", intentID,
		"order_id", matchedOrderID,
		"transaction_id", t.ID,
		"amount", t.Amount,
	)

	return t, nil
}

// CancelIntent lets the owning user withdraw an unmatched top-up request.
func (s *Service) CancelIntent(ctx context.Context, userID, intentID uuid.UUID) (*domain.DepositIntent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CancelIntent: begin tx: %w", err)
	}
	defer tx.Rollback()

	intent, err := s.deposits.GetForUpdate(ctx, tx, intentID)
	if err != nil {
		return nil, fmt.Errorf("CancelIntent: %w", err)
	}

	if intent.UserID != userID {
		return nil, fmt.Errorf("CancelIntent: %w", domain.ErrNotFound)
	}
	if intent.Status.IsTerminal() {
		return nil, fmt.Errorf("CancelIntent: intent is %s: %w", intent.Status, domain.ErrInvalidState)
	}

	if err := s.deposits.MarkCancelled(ctx, tx, intentID); err != nil {
		return nil, fmt.Errorf("CancelIntent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CancelIntent: commit: %w", err)
	}

	intent.Status = domain.DepositStatusCancelled
	return intent, nil
}

func (s *Service) GetIntent(ctx context.Context, id uuid.UUID) (*domain.DepositIntent, error) {
	intent, err := s.deposits.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetIntent: %w", err)
	}
	return intent, nil
}

func (s *Service) ListUserIntents(ctx context.Context, userID uuid.UUID) ([]domain.DepositIntent, error) {
	intents, err := s.deposits.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListUserIntents: %w", err)
	}
	return intents, nil
}

func (s *Service) ListIntentsByStatus(ctx context.Context, status domain.DepositStatus) ([]domain.DepositIntent, error) {
	intents, err := s.deposits.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("ListIntentsByStatus: %w", err)
	}
	return intents, nil
}

func generateReference() (string, error) {
	digits := make([]byte, 10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateReference: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return "WTJ-" + string(digits), nil
}
