package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProviderEvent is the canonical payment notification. Every channel
// (webhook, poll, socket hint) normalizes its provider-specific payload into
// this shape before handing it to the reconciler; the raw-format quirks stay
// inside each channel's adapter.
type ProviderEvent struct {
	OrderID  string
	Status   string
	Amount   decimal.Decimal
	Currency string
	// UserID is set when the channel could attribute the order to a user,
	// typically by decoding the order id. Allows a push notification that
	// beats the initiating flow to still create the payment row.
	UserID *uuid.UUID
	Raw    json.RawMessage
}

// Succeeded reports whether the provider status means the payment went
// through. The provider encodes success as numeric code 100 or the strings
// "completed"/"confirmed"; everything else is still pending, never a
// failure.
func (e ProviderEvent) Succeeded() bool {
	switch strings.ToLower(e.Status) {
	case "100", "completed", "confirmed":
		return true
	}
	return false
}

const orderIDPrefix = "mk_"

// NewOrderID builds a provider order id that embeds the paying user, so any
// notification channel can recover attribution from the id alone.
func NewOrderID(userID uuid.UUID, unixMilli int64) string {
	return orderIDPrefix + userID.String() + "_" + strconv.FormatInt(unixMilli, 10)
}

// ParseOrderUserID recovers the user id embedded in an order id issued by
// NewOrderID. Returns nil for foreign or malformed order ids.
func ParseOrderUserID(orderID string) *uuid.UUID {
	rest, ok := strings.CutPrefix(orderID, orderIDPrefix)
	if !ok {
		return nil
	}
	idPart, _, ok := strings.Cut(rest, "_")
	if !ok {
		return nil
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil
	}
	return &id
}
