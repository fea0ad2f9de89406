package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderEventSucceeded(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"100", true},
		{"completed", true},
		{"confirmed", true},
		{"Confirmed", true},
		{"COMPLETED", true},
		{"pending", false},
		{"0", false},
		{"processing", false},
		{"failed", false},
		{"", false},
		{"101", false},
	}

	for _, tt := range tests {
		t.Run("status "+tt.status, func(t *testing.T) {
			e := ProviderEvent{Status: tt.status}
			assert.Equal(t, tt.want, e.Succeeded())
		})
	}
}

func TestOrderIDRoundTrip(t *testing.T) {
	userID := uuid.New()
	orderID := NewOrderID(userID, 1756400000000)

	assert.Equal(t, "mk_"+userID.String()+"_1756400000000", orderID)

	got := ParseOrderUserID(orderID)
	require.NotNil(t, got)
	assert.Equal(t, userID, *got)
}

func TestParseOrderUserID_ForeignIDs(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
	}{
		{"no prefix", "order_42"},
		{"empty", ""},
		{"prefix only", "mk_"},
		{"not a uuid", "mk_not-a-uuid_1756400000000"},
		{"missing timestamp", "mk_" + uuid.NewString()},
		{"bare uuid", uuid.NewString()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ParseOrderUserID(tt.orderID))
		})
	}
}
