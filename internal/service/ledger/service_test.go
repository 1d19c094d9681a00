package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/repository"
	"github.com/wantokjobs/wallet-service/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewService(
		repository.NewWalletRepository(db),
		repository.NewTransactionRepository(db),
		db,
	)
	return svc, db
}

var userSeq int

func seedUser(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()
	userSeq++
	email := fmt.Sprintf("user%d@test.com", userSeq)
	return testutil.SeedTestUser(t, db, email, "Test User", domain.UserRoleEmployer).ID
}

func TestGetBalance_CreatesWalletWithoutLedgerRow(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	w, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance)
	assert.Equal(t, int64(0), w.ReservedBalance)
	assert.Equal(t, domain.CurrencyPGK, w.Currency)
	assert.Equal(t, domain.WalletStatusActive, w.Status)

	// A second read returns the same wallet, still with no history.
	again, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, w.ID, again.ID)

	_, total, err := svc.ListTransactions(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestPostTransaction_CreditThenDebit(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	credit, err := svc.PostTransaction(ctx, PostRequest{
		UserID:      userID,
		Amount:      100,
		CreditType:  domain.CreditTypeDeposit,
		Description: "top-up",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionCredit, credit.Direction)
	assert.Equal(t, int64(100), credit.RunningBalance)

	debit, err := svc.PostTransaction(ctx, PostRequest{
		UserID:      userID,
		Amount:      -40,
		CreditType:  domain.CreditTypeJobPosting,
		Description: "job posting",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionDebit, debit.Direction)
	assert.Equal(t, int64(60), debit.RunningBalance)
	assert.Greater(t, debit.ID, credit.ID)

	w, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), w.Balance)
}

func TestPostTransaction_RejectsZeroAmount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PostTransaction(context.Background(), PostRequest{
		UserID:     uuid.New(),
		Amount:     0,
		CreditType: domain.CreditTypeDeposit,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestPostTransaction_InsufficientBalance(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	_, err := svc.PostTransaction(ctx, PostRequest{
		UserID:     userID,
		Amount:     50,
		CreditType: domain.CreditTypeDeposit,
	})
	require.NoError(t, err)

	_, err = svc.PostTransaction(ctx, PostRequest{
		UserID:     userID,
		Amount:     -51,
		CreditType: domain.CreditTypeJobPosting,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// The failed debit must leave no trace.
	w, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), w.Balance)

	_, total, err := svc.ListTransactions(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestPostTransaction_IdempotentReplay(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	req := PostRequest{
		UserID:         userID,
		Amount:         100,
		CreditType:     domain.CreditTypeDeposit,
		IdempotencyKey: "deposit:" + uuid.NewString(),
		Description:    "top-up",
	}

	first, err := svc.PostTransaction(ctx, req)
	require.NoError(t, err)

	second, err := svc.PostTransaction(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.RunningBalance, second.RunningBalance)

	w, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
}

func TestPostTransaction_IdempotencyConflict(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := seedUser(t, db)
	key := "deposit:" + uuid.NewString()

	_, err := svc.PostTransaction(ctx, PostRequest{
		UserID:         owner,
		Amount:         100,
		CreditType:     domain.CreditTypeDeposit,
		IdempotencyKey: key,
	})
	require.NoError(t, err)

	t.Run("different amount", func(t *testing.T) {
		_, err := svc.PostTransaction(ctx, PostRequest{
			UserID:         owner,
			Amount:         200,
			CreditType:     domain.CreditTypeDeposit,
			IdempotencyKey: key,
		})
		assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)
	})

	t.Run("different user", func(t *testing.T) {
		_, err := svc.PostTransaction(ctx, PostRequest{
			UserID:         uuid.New(),
			Amount:         100,
			CreditType:     domain.CreditTypeDeposit,
			IdempotencyKey: key,
		})
		assert.ErrorIs(t, err, domain.ErrIdempotencyConflict)
	})

	// The original posting is untouched.
	w, err := svc.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
}

func TestPostTransaction_ConcurrentSameKey(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)
	key := "deposit:" + uuid.NewString()

	const workers = 8
	results := make([]*domain.Transaction, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.PostTransaction(ctx, PostRequest{
				UserID:         userID,
				Amount:         100,
				CreditType:     domain.CreditTypeDeposit,
				IdempotencyKey: key,
			})
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
	}
	for i := 1; i < workers; i++ {
		assert.Equal(t, results[0].ID, results[i].ID)
	}

	// Exactly one posting happened.
	w, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
}

func TestPostTransaction_ConcurrentDebits(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	_, err := svc.PostTransaction(ctx, PostRequest{
		UserID:     userID,
		Amount:     100,
		CreditType: domain.CreditTypeDeposit,
	})
	require.NoError(t, err)

	// 20 concurrent debits of 10 against a balance of 100: exactly 10 may
	// succeed and the balance lands on zero.
	const workers = 20
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.PostTransaction(ctx, PostRequest{
				UserID:     userID,
				Amount:     -10,
				CreditType: domain.CreditTypeJobPosting,
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 10, succeeded)

	w, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), w.Balance)
}

func TestPostTransaction_RunningBalancesReplay(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	amounts := []int64{100, -30, 50, -20, -100}
	for _, a := range amounts {
		ct := domain.CreditTypeDeposit
		if a < 0 {
			ct = domain.CreditTypeAIMatching
		}
		_, err := svc.PostTransaction(ctx, PostRequest{UserID: userID, Amount: a, CreditType: ct})
		require.NoError(t, err)
	}

	txs, total, err := svc.ListTransactions(ctx, userID, 50, 0)
	require.NoError(t, err)
	require.Equal(t, len(amounts), total)

	// History is newest first; replaying oldest first from zero must
	// reproduce each stored running balance.
	var balance int64
	for i := len(txs) - 1; i >= 0; i-- {
		balance += txs[i].Amount
		assert.Equal(t, balance, txs[i].RunningBalance)
	}

	w, err := svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, balance, w.Balance)
}

func TestPostTransaction_FrozenWallet(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	_, err := svc.PostTransaction(ctx, PostRequest{
		UserID:     userID,
		Amount:     100,
		CreditType: domain.CreditTypeDeposit,
	})
	require.NoError(t, err)

	testutil.FreezeWallet(t, db, userID)

	_, err = svc.PostTransaction(ctx, PostRequest{
		UserID:     userID,
		Amount:     -10,
		CreditType: domain.CreditTypeJobPosting,
	})
	assert.ErrorIs(t, err, domain.ErrWalletFrozen)

	// Credits still land on a frozen wallet.
	credit, err := svc.PostTransaction(ctx, PostRequest{
		UserID:     userID,
		Amount:     25,
		CreditType: domain.CreditTypeRefund,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(125), credit.RunningBalance)
}

func TestReserveAndRelease(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	_, err := svc.PostTransaction(ctx, PostRequest{
		UserID:     userID,
		Amount:     100,
		CreditType: domain.CreditTypeDeposit,
	})
	require.NoError(t, err)

	w, err := svc.Reserve(ctx, userID, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(40), w.Balance)
	assert.Equal(t, int64(60), w.ReservedBalance)

	_, err = svc.Reserve(ctx, userID, 41)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = svc.Release(ctx, userID, 61)
	assert.ErrorIs(t, err, domain.ErrInsufficientReserved)

	w, err = svc.Release(ctx, userID, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)
	assert.Equal(t, int64(0), w.ReservedBalance)

	// Reservations never write ledger rows.
	_, total, err := svc.ListTransactions(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestReserve_FrozenWallet(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	userID := seedUser(t, db)

	_, err := svc.PostTransaction(ctx, PostRequest{
		UserID:     userID,
		Amount:     100,
		CreditType: domain.CreditTypeDeposit,
	})
	require.NoError(t, err)
	testutil.FreezeWallet(t, db, userID)

	_, err = svc.Reserve(ctx, userID, 10)
	assert.ErrorIs(t, err, domain.ErrWalletFrozen)
}

func TestReserve_RejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Reserve(context.Background(), uuid.New(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Release(context.Background(), uuid.New(), -5)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
