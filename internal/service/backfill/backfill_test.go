package backfill

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"github.com/wantokjobs/wallet-service/internal/repository"
	"github.com/wantokjobs/wallet-service/internal/testutil"
)

func newTestRunner(t *testing.T) (*Runner, *sql.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	runner := NewRunner(
		repository.NewProfileRepository(db),
		repository.NewTransactionRepository(db),
		db,
	)
	return runner, db
}

func TestRun_SeedsWalletsFromLegacyCredits(t *testing.T) {
	runner, db := newTestRunner(t)
	ctx := context.Background()

	employer := testutil.SeedTestUser(t, db, "employer@test.com", "Employer", domain.UserRoleEmployer)
	jobseeker := testutil.SeedTestUser(t, db, "seeker@test.com", "Seeker", domain.UserRoleJobseeker)

	testutil.SeedEmployerProfile(t, db, employer.ID, 10, 5, 3)
	testutil.SeedJobseekerProfile(t, db, jobseeker.ID, 7)

	result, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.WalletsCreated)

	balance, reserved := testutil.GetWalletBalances(t, db, employer.ID)
	assert.Equal(t, int64(18), balance)
	assert.Equal(t, int64(0), reserved)

	balance, _ = testutil.GetWalletBalances(t, db, jobseeker.ID)
	assert.Equal(t, int64(7), balance)

	// Seeding is not a ledger event.
	assert.Equal(t, 0, testutil.CountTransactions(t, db, employer.ID))
	assert.Equal(t, 0, testutil.CountTransactions(t, db, jobseeker.ID))
}

func TestRun_SkipsExistingWallets(t *testing.T) {
	runner, db := newTestRunner(t)
	ctx := context.Background()

	employer := testutil.SeedTestUser(t, db, "employer@test.com", "Employer", domain.UserRoleEmployer)
	testutil.SeedEmployerProfile(t, db, employer.ID, 10, 0, 0)
	testutil.SeedWallet(t, db, employer.ID, 42, 0)

	result, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.WalletsCreated)

	// The live wallet balance wins over the legacy columns.
	balance, _ := testutil.GetWalletBalances(t, db, employer.ID)
	assert.Equal(t, int64(42), balance)
}

func TestRun_BackfillsDirectionsAndRunningBalances(t *testing.T) {
	runner, db := newTestRunner(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "User", domain.UserRoleEmployer)

	amounts := []int64{100, -30, 0, -20}
	ids := make([]int64, len(amounts))
	for i, a := range amounts {
		ids[i] = testutil.SeedLegacyTransaction(t, db, user.ID, a, domain.CreditTypeJobPosting)
	}

	result, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.DirectionsBackfilled)
	assert.Equal(t, 4, result.TransactionsRecomputed)

	wantDirections := []domain.Direction{
		domain.DirectionCredit,
		domain.DirectionDebit,
		domain.DirectionCredit, // zero amounts default to CREDIT
		domain.DirectionDebit,
	}
	wantBalances := []int64{100, 70, 70, 50}

	for i, id := range ids {
		var direction string
		var runningBalance int64
		err := db.QueryRow(
			`SELECT direction, running_balance FROM credit_transactions WHERE id = $1`, id,
		).Scan(&direction, &runningBalance)
		require.NoError(t, err)
		assert.Equal(t, string(wantDirections[i]), direction)
		assert.Equal(t, wantBalances[i], runningBalance)
	}
}

func TestRun_WritesZeroRunningBalance(t *testing.T) {
	runner, db := newTestRunner(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "user@test.com", "User", domain.UserRoleEmployer)

	// A fully spent balance mid-ledger. The zero must be written out, not
	// left NULL.
	amounts := []int64{100, -100, 50}
	ids := make([]int64, len(amounts))
	for i, a := range amounts {
		ids[i] = testutil.SeedLegacyTransaction(t, db, user.ID, a, domain.CreditTypeJobPosting)
	}

	result, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TransactionsRecomputed)

	wantBalances := []int64{100, 0, 50}
	for i, id := range ids {
		var runningBalance sql.NullInt64
		err := db.QueryRow(
			`SELECT running_balance FROM credit_transactions WHERE id = $1`, id,
		).Scan(&runningBalance)
		require.NoError(t, err)
		require.True(t, runningBalance.Valid)
		assert.Equal(t, wantBalances[i], runningBalance.Int64)
	}

	second, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.TransactionsRecomputed)
}

func TestRun_IsIdempotent(t *testing.T) {
	runner, db := newTestRunner(t)
	ctx := context.Background()

	employer := testutil.SeedTestUser(t, db, "employer@test.com", "Employer", domain.UserRoleEmployer)
	testutil.SeedEmployerProfile(t, db, employer.ID, 10, 5, 0)
	testutil.SeedLegacyTransaction(t, db, employer.ID, 15, domain.CreditTypeJobPosting)

	first, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.WalletsCreated)

	second, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.WalletsCreated)
	assert.Equal(t, int64(0), second.DirectionsBackfilled)
	assert.Equal(t, 0, second.TransactionsRecomputed)

	balance, _ := testutil.GetWalletBalances(t, db, employer.ID)
	assert.Equal(t, int64(15), balance)
}

func TestRun_NegativeLegacyCreditsClampToZero(t *testing.T) {
	runner, db := newTestRunner(t)
	ctx := context.Background()

	employer := testutil.SeedTestUser(t, db, "employer@test.com", "Employer", domain.UserRoleEmployer)
	testutil.SeedEmployerProfile(t, db, employer.ID, -5, 0, 0)

	_, err := runner.Run(ctx)
	require.NoError(t, err)

	balance, _ := testutil.GetWalletBalances(t, db, employer.ID)
	assert.Equal(t, int64(0), balance)
}

func TestRun_EmptyDatabase(t *testing.T) {
	runner, _ := newTestRunner(t)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.WalletsCreated)
	assert.Equal(t, int64(0), result.DirectionsBackfilled)
	assert.Equal(t, 0, result.TransactionsRecomputed)
}
