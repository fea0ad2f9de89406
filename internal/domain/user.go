package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeModel  AccountType = "model"
	AccountTypeMember AccountType = "member"
)

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	AccountType  AccountType
	Balance      decimal.Decimal
	CreatedAt    time.Time
}
