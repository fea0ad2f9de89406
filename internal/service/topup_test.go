package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/repository"
	"github.com/sourpls22-ux/marketplace-backend/internal/testutil"
)

type fakeCheckout struct {
	lastOrderID string
}

func (f *fakeCheckout) CheckoutURL(orderID string, amount decimal.Decimal, currency, successURL, cancelURL string) string {
	f.lastOrderID = orderID
	return "https://pay.example.com/" + orderID
}

func TestCreateTopup_StoresPendingPaymentBeforeCheckout(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "alice@example.com", "Alice", domain.AccountTypeModel)

	checkout := &fakeCheckout{}
	svc := NewTopupService(repository.NewPaymentRepository(db), checkout, db, "https://app.example.com")

	result, err := svc.CreateTopup(context.Background(), TopupRequest{
		UserID: user.ID,
		Amount: decimal.NewFromInt(25),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.OrderID, "mk_"+user.ID.String()+"_"))
	assert.Equal(t, "https://pay.example.com/"+result.OrderID, result.PaymentURL)
	assert.Equal(t, result.OrderID, checkout.lastOrderID)
	assert.True(t, result.CreditAmount.Equal(decimal.NewFromInt(25)))

	assert.Equal(t, domain.PaymentStatusPending, testutil.PaymentStatus(t, db, result.OrderID))
}

func TestCreateTopup_PromotionalCreditDiffersFromCharge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "bob@example.com", "Bob", domain.AccountTypeModel)

	svc := NewTopupService(repository.NewPaymentRepository(db), &fakeCheckout{}, db, "https://app.example.com")

	result, err := svc.CreateTopup(context.Background(), TopupRequest{
		UserID:       user.ID,
		Amount:       decimal.NewFromInt(20),
		CreditAmount: decimal.NewFromInt(25),
	})
	require.NoError(t, err)
	assert.True(t, result.CreditAmount.Equal(decimal.NewFromInt(25)))

	var credit decimal.Decimal
	require.NoError(t, db.QueryRow(
		`SELECT credit_amount FROM payments WHERE payment_id = $1`, result.OrderID,
	).Scan(&credit))
	assert.True(t, credit.Equal(decimal.NewFromInt(25)))
}

func TestCreateTopup_RejectsAmountBelowMinimum(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.SeedTestUser(t, db, "carol@example.com", "Carol", domain.AccountTypeModel)

	svc := NewTopupService(repository.NewPaymentRepository(db), &fakeCheckout{}, db, "https://app.example.com")

	_, err := svc.CreateTopup(context.Background(), TopupRequest{
		UserID: user.ID,
		Amount: decimal.NewFromFloat(0.5),
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count))
	assert.Zero(t, count)
}
