package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type PaymentMethod string

const PaymentMethodCrypto PaymentMethod = "crypto"

// Payment is one top-up attempt, keyed by the provider-issued order id.
// Rows are created at most once per attempt and never deleted. Once the
// status reaches completed it is terminal and the balance credit has been
// applied exactly once.
type Payment struct {
	PaymentID    string
	UserID       uuid.UUID
	AmountToPay  decimal.Decimal
	CreditAmount decimal.Decimal
	Method       PaymentMethod
	Status       PaymentStatus
	CreatedAt    time.Time
}

// CreditInfo is the slice of a payment row the reconciler needs to apply
// the balance credit.
type CreditInfo struct {
	UserID       uuid.UUID
	CreditAmount decimal.Decimal
}
