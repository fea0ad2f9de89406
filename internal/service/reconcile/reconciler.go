// Package reconcile applies payment-provider notifications to local payment
// and balance state. Reconcile is idempotent under arbitrary duplication and
// reordering: a successful order is credited exactly once no matter how many
// channels report it, in whatever order.
package reconcile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
)

type paymentRepo interface {
	UpsertPending(ctx context.Context, tx *sql.Tx, p *domain.Payment) (bool, error)
	TryComplete(ctx context.Context, tx *sql.Tx, orderID string) (bool, error)
	GetCreditInfo(ctx context.Context, tx *sql.Tx, orderID string) (*domain.CreditInfo, error)
}

type userRepo interface {
	CreditBalance(ctx context.Context, tx *sql.Tx, userID uuid.UUID, amount decimal.Decimal) error
}

type Result struct {
	// AlreadyCompleted is true when another reconciliation attempt credited
	// this order first. Not an error: the caller's channel should stop
	// retrying.
	AlreadyCompleted bool
}

type Reconciler struct {
	payments paymentRepo
	users    userRepo
	db       *sql.DB
	logger   *slog.Logger
}

func New(payments paymentRepo, users userRepo, db *sql.DB, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		payments: payments,
		users:    users,
		db:       db,
		logger:   logger,
	}
}

// Reconcile applies one provider event. Non-success events never mutate
// state: the payment stays pending and a completed payment is never
// downgraded. Success events run ensure-exists, transition-if-not-completed
// and credit inside a single transaction, so two concurrent attempts for the
// same order cannot both credit.
func (r *Reconciler) Reconcile(ctx context.Context, event domain.ProviderEvent) (Result, error) {
	if !event.Succeeded() {
		r.logger.Debug("order still pending at provider", "order_id", event.OrderID, "provider_status", event.Status)
		return Result{}, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("Reconcile: begin tx: %w: %w", domain.ErrStorageFailure, err)
	}
	defer tx.Rollback()

	// A push notification can beat the top-up flow that normally creates the
	// row. When the channel attributed the order to a user, insert the row
	// here with the event amount standing in for both charge and credit.
	if event.UserID != nil {
		created, err := r.payments.UpsertPending(ctx, tx, &domain.Payment{
			PaymentID:    event.OrderID,
			UserID:       *event.UserID,
			AmountToPay:  event.Amount,
			CreditAmount: event.Amount,
			Method:       domain.PaymentMethodCrypto,
			Status:       domain.PaymentStatusPending,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			return Result{}, fmt.Errorf("Reconcile: %w: %w", domain.ErrStorageFailure, err)
		}
		if created {
			r.logger.Info("payment row created from notification", "order_id", event.OrderID, "user_id", *event.UserID)
		}
	}

	changed, err := r.payments.TryComplete(ctx, tx, event.OrderID)
	if err != nil {
		return Result{}, fmt.Errorf("Reconcile: %w: %w", domain.ErrStorageFailure, err)
	}

	if !changed {
		// Either a concurrent attempt completed the order first, or there is
		// no row at all (unattributable foreign order id).
		if _, err := r.payments.GetCreditInfo(ctx, tx, event.OrderID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Result{}, fmt.Errorf("Reconcile: %w", domain.ErrUnknownOrder)
			}
			return Result{}, fmt.Errorf("Reconcile: %w: %w", domain.ErrStorageFailure, err)
		}
		if err := tx.Commit(); err != nil {
			return Result{}, fmt.Errorf("Reconcile: commit: %w: %w", domain.ErrStorageFailure, err)
		}
		r.logger.Info("order already completed, credit skipped", "order_id", event.OrderID)
		return Result{AlreadyCompleted: true}, nil
	}

	info, err := r.payments.GetCreditInfo(ctx, tx, event.OrderID)
	if err != nil {
		return Result{}, fmt.Errorf("Reconcile: %w: %w", domain.ErrStorageFailure, err)
	}

	credit := info.CreditAmount
	if credit.IsZero() {
		credit = event.Amount
	}

	if err := r.users.CreditBalance(ctx, tx, info.UserID, credit); err != nil {
		return Result{}, fmt.Errorf("Reconcile: %w: %w", domain.ErrStorageFailure, err)
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("Reconcile: commit: %w: %w", domain.ErrStorageFailure, err)
	}

	r.logger.Info("payment completed and balance credited",
		"order_id", event.OrderID,
		"user_id", info.UserID,
		"credit", credit.String(),
	)
	return Result{}, nil
}
