package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/repository"
	"github.com/sourpls22-ux/marketplace-backend/internal/testutil"
)

func setupReconciler(t *testing.T) (*Reconciler, *sql.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	rec := New(
		repository.NewPaymentRepository(db),
		repository.NewUserRepository(db),
		db,
		slog.Default(),
	)
	return rec, db
}

func confirmedEvent(orderID string, amount decimal.Decimal) domain.ProviderEvent {
	return domain.ProviderEvent{
		OrderID:  orderID,
		Status:   "confirmed",
		Amount:   amount,
		Currency: "USDT",
		UserID:   domain.ParseOrderUserID(orderID),
	}
}

func TestReconcile_CreditsOnce(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "alice@example.com", "Alice", domain.AccountTypeModel)
	p := testutil.SeedTestPayment(t, db, user.ID, decimal.NewFromInt(25), domain.PaymentStatusPending)

	result, err := rec.Reconcile(ctx, confirmedEvent(p.PaymentID, decimal.NewFromInt(25)))
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)

	assert.Equal(t, domain.PaymentStatusCompleted, testutil.PaymentStatus(t, db, p.PaymentID))
	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromInt(25)))
}

func TestReconcile_DuplicateDeliveriesCreditOnce(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "bob@example.com", "Bob", domain.AccountTypeModel)
	p := testutil.SeedTestPayment(t, db, user.ID, decimal.NewFromInt(10), domain.PaymentStatusPending)

	for i := range 5 {
		result, err := rec.Reconcile(ctx, confirmedEvent(p.PaymentID, decimal.NewFromInt(10)))
		require.NoError(t, err)
		if i > 0 {
			assert.True(t, result.AlreadyCompleted, "delivery %d should report already completed", i)
		}
	}

	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromInt(10)))
}

func TestReconcile_ConcurrentDeliveriesCreditOnce(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "carol@example.com", "Carol", domain.AccountTypeModel)
	p := testutil.SeedTestPayment(t, db, user.ID, decimal.NewFromInt(50), domain.PaymentStatusPending)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	results := make([]Result, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = rec.Reconcile(ctx, confirmedEvent(p.PaymentID, decimal.NewFromInt(50)))
		}()
	}
	wg.Wait()

	credited := 0
	for i := range workers {
		require.NoError(t, errs[i])
		if !results[i].AlreadyCompleted {
			credited++
		}
	}
	assert.Equal(t, 1, credited, "exactly one delivery should perform the credit")
	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromInt(50)))
}

func TestReconcile_PendingEventIsNoOp(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "dave@example.com", "Dave", domain.AccountTypeModel)
	p := testutil.SeedTestPayment(t, db, user.ID, decimal.NewFromInt(30), domain.PaymentStatusPending)

	event := confirmedEvent(p.PaymentID, decimal.NewFromInt(30))
	event.Status = "pending"

	result, err := rec.Reconcile(ctx, event)
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)

	assert.Equal(t, domain.PaymentStatusPending, testutil.PaymentStatus(t, db, p.PaymentID))
	assert.True(t, testutil.UserBalance(t, db, user.ID).IsZero())
}

func TestReconcile_NeverDowngradesCompleted(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "erin@example.com", "Erin", domain.AccountTypeModel)
	p := testutil.SeedTestPayment(t, db, user.ID, decimal.NewFromInt(15), domain.PaymentStatusPending)

	_, err := rec.Reconcile(ctx, confirmedEvent(p.PaymentID, decimal.NewFromInt(15)))
	require.NoError(t, err)

	// A stale pending report arriving after completion changes nothing.
	stale := confirmedEvent(p.PaymentID, decimal.NewFromInt(15))
	stale.Status = "0"
	_, err = rec.Reconcile(ctx, stale)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusCompleted, testutil.PaymentStatus(t, db, p.PaymentID))
	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromInt(15)))
}

func TestReconcile_CreatesRowWhenPushBeatsTopup(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "frank@example.com", "Frank", domain.AccountTypeModel)
	orderID := domain.NewOrderID(user.ID, time.Now().UnixMilli())

	result, err := rec.Reconcile(ctx, confirmedEvent(orderID, decimal.NewFromInt(40)))
	require.NoError(t, err)
	assert.False(t, result.AlreadyCompleted)

	assert.Equal(t, domain.PaymentStatusCompleted, testutil.PaymentStatus(t, db, orderID))
	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromInt(40)))
}

func TestReconcile_UnknownOrderIsRejected(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	_, err := rec.Reconcile(ctx, domain.ProviderEvent{
		OrderID: "order_42",
		Status:  "100",
		Amount:  decimal.NewFromInt(99),
	})
	require.ErrorIs(t, err, domain.ErrUnknownOrder)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM payments`).Scan(&count))
	assert.Zero(t, count)
}

func TestReconcile_ZeroCreditFallsBackToEventAmount(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "grace@example.com", "Grace", domain.AccountTypeModel)
	orderID := domain.NewOrderID(user.ID, time.Now().UnixMilli())

	_, err := db.Exec(
		`INSERT INTO payments (payment_id, user_id, amount_to_pay, credit_amount, status)
		 VALUES ($1, $2, 0, 0, 'pending')`,
		orderID, user.ID,
	)
	require.NoError(t, err)

	_, err = rec.Reconcile(ctx, confirmedEvent(orderID, decimal.NewFromInt(7)))
	require.NoError(t, err)

	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(decimal.NewFromInt(7)))
}

func TestReconcile_ManyOrdersForOneUserAccumulate(t *testing.T) {
	rec, db := setupReconciler(t)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "heidi@example.com", "Heidi", domain.AccountTypeModel)

	total := decimal.Zero
	for i := range 3 {
		amount := decimal.NewFromInt(int64(10 * (i + 1)))
		orderID := fmt.Sprintf("mk_%s_%d", user.ID, time.Now().UnixMilli()+int64(i))

		_, err := rec.Reconcile(ctx, confirmedEvent(orderID, amount))
		require.NoError(t, err)
		total = total.Add(amount)
	}

	assert.True(t, testutil.UserBalance(t, db, user.ID).Equal(total))
}
