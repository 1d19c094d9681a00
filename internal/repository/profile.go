package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// LegacyCredits is a pre-wallet per-profile credit total, read only by the
// backfill routine.
type LegacyCredits struct {
	UserID uuid.UUID
	Total  int64
}

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// EmployerCredits sums the three employer credit pools into one total per
// user, mirroring how the unified wallet collapses them.
func (r *ProfileRepository) EmployerCredits(ctx context.Context, tx *sql.Tx) ([]LegacyCredits, error) {
	return r.queryCredits(ctx, tx,
		`SELECT user_id,
			COALESCE(job_posting_credits, 0)
			+ COALESCE(ai_matching_credits, 0)
			+ COALESCE(candidate_search_credits, 0)
		FROM employer_profiles`)
}

func (r *ProfileRepository) JobseekerCredits(ctx context.Context, tx *sql.Tx) ([]LegacyCredits, error) {
	return r.queryCredits(ctx, tx,
		`SELECT user_id, COALESCE(alert_credits, 0) FROM jobseeker_profiles`)
}

func (r *ProfileRepository) queryCredits(ctx context.Context, tx *sql.Tx, query string) ([]LegacyCredits, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("queryCredits: %w", err)
	}
	defer rows.Close()

	var credits []LegacyCredits
	for rows.Next() {
		var c LegacyCredits
		if err := rows.Scan(&c.UserID, &c.Total); err != nil {
			return nil, fmt.Errorf("queryCredits: scan: %w", err)
		}
		credits = append(credits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queryCredits: rows: %w", err)
	}
	return credits, nil
}

// SeedWallet inserts a wallet carrying a legacy balance, skipping users whose
// wallet already exists so the backfill can be re-run.
func (r *ProfileRepository) SeedWallet(ctx context.Context, tx *sql.Tx, userID uuid.UUID, balance int64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO credit_wallets (user_id, balance, reserved_balance)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, balance,
	)
	if err != nil {
		return false, fmt.Errorf("SeedWallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("SeedWallet: rows affected: %w", err)
	}
	return n > 0, nil
}
