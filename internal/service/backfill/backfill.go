// Package backfill is the one-shot migration that brings pre-wallet data into
// the ledger model: it seeds wallets from legacy per-profile credit columns
// and recomputes direction and running_balance for historical transactions.
// The whole routine runs in a single database transaction and is safe to
// re-run.
package backfill

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/logging"
	"github.com/wantokjobs/wallet-service/internal/repository"
)

type profileRepo interface {
	EmployerCredits(ctx context.Context, tx *sql.Tx) ([]repository.LegacyCredits, error)
	JobseekerCredits(ctx context.Context, tx *sql.Tx) ([]repository.LegacyCredits, error)
	SeedWallet(ctx context.Context, tx *sql.Tx, userID uuid.UUID, balance int64) (bool, error)
}

type transactionRepo interface {
	BackfillDirections(ctx context.Context, tx *sql.Tx) (int64, error)
	DistinctUserIDs(ctx context.Context, tx *sql.Tx) ([]uuid.UUID, error)
	ListForReplay(ctx context.Context, tx *sql.Tx, userID uuid.UUID) ([]repository.ReplayEntry, error)
	SetRunningBalance(ctx context.Context, tx *sql.Tx, id, runningBalance int64) error
}

type Result struct {
	WalletsCreated         int
	DirectionsBackfilled   int64
	TransactionsRecomputed int
}

type Runner struct {
	profiles     profileRepo
	transactions transactionRepo
	db           *sql.DB
}

func NewRunner(profiles profileRepo, transactions transactionRepo, db *sql.DB) *Runner {
	return &Runner{
		profiles:     profiles,
		transactions: transactions,
		db:           db,
	}
}

// Run executes the backfill. Wallet seeding skips users who already have a
// wallet, and the replay is a pure recomputation, so a second run converges
// to the same state.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	log := logging.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Run: begin tx: %w", err)
	}
	defer tx.Rollback()

	result := &Result{}

	created, err := r.seedWallets(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	result.WalletsCreated = created

	result.DirectionsBackfilled, err = r.transactions.BackfillDirections(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}

	recomputed, err := r.replayRunningBalances(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}
	result.TransactionsRecomputed = recomputed

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Run: commit: %w", err)
	}

	log.Info("backfill complete",
		"wallets_created", result.WalletsCreated,
		"directions_backfilled", result.DirectionsBackfilled,
		"transactions_recomputed", result.TransactionsRecomputed,
	)

	return result, nil
}

// seedWallets collapses the legacy employer credit pools and jobseeker alert
// credits into opening wallet balances. Seeding writes no ledger rows; the
// legacy transactions already are the history.
func (r *Runner) seedWallets(ctx context.Context, tx *sql.Tx) (int, error) {
	employer, err := r.profiles.EmployerCredits(ctx, tx)
	if err != nil {
		return 0, err
	}
	jobseeker, err := r.profiles.JobseekerCredits(ctx, tx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, c := range append(employer, jobseeker...) {
		if c.Total < 0 {
			c.Total = 0
		}
		ok, err := r.profiles.SeedWallet(ctx, tx, c.UserID, c.Total)
		if err != nil {
			return 0, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// replayRunningBalances walks each user's ledger in id order, accumulating
// signed amounts from zero and rewriting running_balance where it disagrees.
// NULL rows are always written, even when the computed balance is zero.
func (r *Runner) replayRunningBalances(ctx context.Context, tx *sql.Tx) (int, error) {
	userIDs, err := r.transactions.DistinctUserIDs(ctx, tx)
	if err != nil {
		return 0, err
	}

	recomputed := 0
	for _, userID := range userIDs {
		entries, err := r.transactions.ListForReplay(ctx, tx, userID)
		if err != nil {
			return 0, err
		}

		var balance int64
		for _, e := range entries {
			balance += e.Amount
			if e.RunningBalance.Valid && e.RunningBalance.Int64 == balance {
				continue
			}
			if err := r.transactions.SetRunningBalance(ctx, tx, e.ID, balance); err != nil {
				return 0, err
			}
			recomputed++
		}
	}
	return recomputed, nil
}
