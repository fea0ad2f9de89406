package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Profile struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Age            int
	City           string
	Country        string
	Description    string
	Price          decimal.Decimal
	MediaURL       *string
	IsActive       bool
	BoostExpiresAt *time.Time
	CreatedAt      time.Time
}

// Boosted reports whether a prior activation is still in effect, letting the
// owner re-activate without another charge.
func (p *Profile) Boosted(now time.Time) bool {
	return p.BoostExpiresAt != nil && p.BoostExpiresAt.After(now)
}
