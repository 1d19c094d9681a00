package deposit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/repository"
	"github.com/wantokjobs/wallet-service/internal/service/ledger"
	"github.com/wantokjobs/wallet-service/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *repository.DepositRepository, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	depositRepo := repository.NewDepositRepository(db)
	ledgerSvc := ledger.NewService(
		repository.NewWalletRepository(db),
		repository.NewTransactionRepository(db),
		db,
	)
	return NewService(depositRepo, ledgerSvc, db, 7*24*time.Hour), depositRepo, db
}

var userSeq int

func seedUser(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	userSeq++
	email := fmt.Sprintf("user%d@test.com", userSeq)
	return testutil.SeedTestUser(t, db, email, "Test User", domain.UserRoleEmployer).ID
}

func TestCreateIntent(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	pkg := "starter"
	intent, err := svc.CreateIntent(ctx, userID, 500, &pkg)
	require.NoError(t, err)

	assert.Equal(t, domain.DepositStatusAwaitingPayment, intent.Status)
	assert.Equal(t, int64(500), intent.AmountExpected)
	assert.True(t, strings.HasPrefix(intent.UniqueReference, "WTJ-"))
	assert.Len(t, intent.UniqueReference, 14)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), intent.ExpiresAt, time.Minute)
	require.NotNil(t, intent.PackageID)
	assert.Equal(t, "starter", *intent.PackageID)
}

func TestCreateIntent_RejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateIntent(context.Background(), uuid.New(), 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.CreateIntent(context.Background(), uuid.New(), -100, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestMatchIntent_CreditsWallet(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	intent, err := svc.CreateIntent(ctx, userID, 500, nil)
	require.NoError(t, err)

	tx, err := svc.MatchIntent(ctx, intent.ID, "ORDER-123")
	require.NoError(t, err)
	assert.Equal(t, int64(500), tx.Amount)
	assert.Equal(t, domain.DirectionCredit, tx.Direction)
	assert.Equal(t, domain.CreditTypeDeposit, tx.CreditType)
	require.NotNil(t, tx.IdempotencyKey)
	assert.Equal(t, "deposit:"+intent.ID.String(), *tx.IdempotencyKey)

	balance, _ := testutil.GetWalletBalances(t, db, userID)
	assert.Equal(t, int64(500), balance)

	matched, err := svc.GetIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusMatched, matched.Status)
	require.NotNil(t, matched.MatchedOrderID)
	assert.Equal(t, "ORDER-123", *matched.MatchedOrderID)
}

func TestMatchIntent_SecondMatchFails(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	intent, err := svc.CreateIntent(ctx, userID, 500, nil)
	require.NoError(t, err)

	_, err = svc.MatchIntent(ctx, intent.ID, "ORDER-1")
	require.NoError(t, err)

	_, err = svc.MatchIntent(ctx, intent.ID, "ORDER-2")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// No double credit.
	balance, _ := testutil.GetWalletBalances(t, db, userID)
	assert.Equal(t, int64(500), balance)
	assert.Equal(t, 1, testutil.CountTransactions(t, db, userID))
}

func TestMatchIntent_UnknownIntent(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.MatchIntent(context.Background(), uuid.New(), "ORDER-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelIntent(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	intent, err := svc.CreateIntent(ctx, userID, 500, nil)
	require.NoError(t, err)

	cancelled, err := svc.CancelIntent(ctx, userID, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusCancelled, cancelled.Status)

	// A cancelled intent cannot be matched.
	_, err = svc.MatchIntent(ctx, intent.ID, "ORDER-1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, 0, testutil.CountTransactions(t, db, userID))
}

func TestCancelIntent_WrongOwner(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	owner := seedUser(t, db)

	intent, err := svc.CreateIntent(ctx, owner, 500, nil)
	require.NoError(t, err)

	_, err = svc.CancelIntent(ctx, uuid.New(), intent.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpireOverdue(t *testing.T) {
	svc, depositRepo, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	intent, err := svc.CreateIntent(ctx, userID, 500, nil)
	require.NoError(t, err)

	fresh, err := svc.CreateIntent(ctx, userID, 300, nil)
	require.NoError(t, err)

	// Push one intent past its expiry.
	_, err = db.Exec(
		`UPDATE deposit_intents SET expires_at = now() - interval '1 hour' WHERE id = $1`,
		intent.ID,
	)
	require.NoError(t, err)

	n, err := depositRepo.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	expired, err := svc.GetIntent(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusExpired, expired.Status)

	stillOpen, err := svc.GetIntent(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusAwaitingPayment, stillOpen.Status)

	// Expiry moves no money.
	assert.Equal(t, 0, testutil.CountTransactions(t, db, userID))

	// A second sweep finds nothing.
	n, err = depositRepo.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSweeper_StopsOnContextCancel(t *testing.T) {
	_, depositRepo, _ := newTestService(t)

	sweeper := NewSweeper(depositRepo, slog.Default(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancel")
	}
}

func TestListIntents(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, db)
	bob := seedUser(t, db)

	a1, err := svc.CreateIntent(ctx, alice, 100, nil)
	require.NoError(t, err)
	_, err = svc.CreateIntent(ctx, alice, 200, nil)
	require.NoError(t, err)
	_, err = svc.CreateIntent(ctx, bob, 300, nil)
	require.NoError(t, err)

	mine, err := svc.ListUserIntents(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.MatchIntent(ctx, a1.ID, "ORDER-1")
	require.NoError(t, err)

	open, err := svc.ListIntentsByStatus(ctx, domain.DepositStatusAwaitingPayment)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	matched, err := svc.ListIntentsByStatus(ctx, domain.DepositStatusMatched)
	require.NoError(t, err)
	assert.Len(t, matched, 1)
}
