package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
)

func SeedTestUser(t *testing.T, db *sql.DB, email, name string, accountType domain.AccountType) *domain.User {
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
		AccountType:  accountType,
		Balance:      decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, account_type, balance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.AccountType, u.Balance, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestPayment(t *testing.T, db *sql.DB, userID uuid.UUID, amount decimal.Decimal, status domain.PaymentStatus) *domain.Payment {
	t.Helper()

	p := &domain.Payment{
		PaymentID:    domain.NewOrderID(userID, time.Now().UnixMilli()),
		UserID:       userID,
		AmountToPay:  amount,
		CreditAmount: amount,
		Method:       "crypto",
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO payments (payment_id, user_id, amount_to_pay, credit_amount, method, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.PaymentID, p.UserID, p.AmountToPay, p.CreditAmount, p.Method, p.Status, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test payment %s: %v", p.PaymentID, err)
	}
	return p
}

func SeedTestProfile(t *testing.T, db *sql.DB, userID uuid.UUID, name, city string) *domain.Profile {
	t.Helper()

	p := &domain.Profile{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Age:       25,
		City:      city,
		Price:     decimal.NewFromInt(100),
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO profiles (id, user_id, name, age, city, country, description, price, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.UserID, p.Name, p.Age, p.City, p.Country, p.Description, p.Price, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test profile %s: %v", name, err)
	}
	return p
}

func UserBalance(t *testing.T, db *sql.DB, userID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	if err := db.QueryRow(`SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance); err != nil {
		t.Fatalf("read balance for %s: %v", userID, err)
	}
	return balance
}

func PaymentStatus(t *testing.T, db *sql.DB, orderID string) domain.PaymentStatus {
	t.Helper()

	var status domain.PaymentStatus
	if err := db.QueryRow(`SELECT status FROM payments WHERE payment_id = $1`, orderID).Scan(&status); err != nil {
		t.Fatalf("read payment status for %s: %v", orderID, err)
	}
	return status
}
