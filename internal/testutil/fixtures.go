package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/wantokjobs/wallet-service/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func SeedTestUser(t *testing.T, db *sql.DB, email, name string, role domain.UserRole) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, role, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedWallet(t *testing.T, db *sql.DB, userID uuid.UUID, balance, reserved int64) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO credit_wallets (user_id, balance, reserved_balance)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET balance = $2, reserved_balance = $3`,
		userID, balance, reserved,
	)
	if err != nil {
		t.Fatalf("seed wallet %s: %v", userID, err)
	}
}

func FreezeWallet(t *testing.T, db *sql.DB, userID uuid.UUID) {
	t.Helper()

	_, err := db.Exec(
		`UPDATE credit_wallets SET status = 'frozen' WHERE user_id = $1`, userID,
	)
	if err != nil {
		t.Fatalf("freeze wallet %s: %v", userID, err)
	}
}

func GetWalletBalances(t *testing.T, db *sql.DB, userID uuid.UUID) (balance, reserved int64) {
	t.Helper()

	err := db.QueryRow(
		`SELECT balance, reserved_balance FROM credit_wallets WHERE user_id = $1`, userID,
	).Scan(&balance, &reserved)
	if err != nil {
		t.Fatalf("get wallet balances %s: %v", userID, err)
	}
	return balance, reserved
}

func CountTransactions(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM credit_transactions WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for %s: %v", userID, err)
	}
	return count
}

// SeedLegacyTransaction inserts a pre-wallet ledger row with no direction or
// running balance, the shape the backfill has to repair.
func SeedLegacyTransaction(t *testing.T, db *sql.DB, userID uuid.UUID, amount int64, creditType domain.CreditType) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`INSERT INTO credit_transactions (user_id, amount, credit_type, description)
		 VALUES ($1, $2, $3, 'legacy row')
		 RETURNING id`,
		userID, amount, creditType,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed legacy transaction for %s: %v", userID, err)
	}
	return id
}

func SeedEmployerProfile(t *testing.T, db *sql.DB, userID uuid.UUID, jobPosting, aiMatching, candidateSearch int64) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO employer_profiles (user_id, job_posting_credits, ai_matching_credits, candidate_search_credits)
		 VALUES ($1, $2, $3, $4)`,
		userID, jobPosting, aiMatching, candidateSearch,
	)
	if err != nil {
		t.Fatalf("seed employer profile %s: %v", userID, err)
	}
}

func SeedJobseekerProfile(t *testing.T, db *sql.DB, userID uuid.UUID, alertCredits int64) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO jobseeker_profiles (user_id, alert_credits)
		 VALUES ($1, $2)`,
		userID, alertCredits,
	)
	if err != nil {
		t.Fatalf("seed jobseeker profile %s: %v", userID, err)
	}
}
