package handler

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/repository"
	"github.com/sourpls22-ux/marketplace-backend/internal/service/reconcile"
	"github.com/sourpls22-ux/marketplace-backend/internal/testutil"
)

func TestReceivePaymentWebhook_EndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)

	user := testutil.SeedTestUser(t, db, "ivan@example.com", "Ivan", domain.AccountTypeModel)
	_, err := db.Exec(`UPDATE users SET balance = 10.0 WHERE id = $1`, user.ID)
	require.NoError(t, err)

	// The row carries the attribution, so even a provider-issued order id
	// that embeds no user reconciles fine.
	orderID := "order_42"
	_, err = db.Exec(
		`INSERT INTO payments (payment_id, user_id, amount_to_pay, credit_amount, status)
		 VALUES ($1, $2, 25.0, 25.0, 'pending')`,
		orderID, user.ID,
	)
	require.NoError(t, err)

	rec := reconcile.New(
		repository.NewPaymentRepository(db),
		repository.NewUserRepository(db),
		db,
		slog.Default(),
	)
	h := NewWebhookHandler(rec, testWebhookSecret)

	body := webhookBody(t, orderID)
	sig := signBody(t, body, testWebhookSecret)

	resp := postWebhook(h, body, sig)
	assert.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, domain.PaymentStatusCompleted, testutil.PaymentStatus(t, db, orderID))
	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromFloat(35.0)))

	// The provider redelivers. Same 200, no second credit.
	resp = postWebhook(h, body, sig)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromFloat(35.0)))
}
