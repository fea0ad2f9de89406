package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
)

type checkoutBuilder interface {
	CheckoutURL(orderID string, amount decimal.Decimal, currency, successURL, cancelURL string) string
}

type topupPaymentRepo interface {
	UpsertPending(ctx context.Context, tx *sql.Tx, p *domain.Payment) (bool, error)
}

// TopupService creates provider orders for balance top-ups. The pending
// payment row is stored before the user ever sees the checkout URL, so every
// notification channel finds it by order id later.
type TopupService struct {
	payments    topupPaymentRepo
	checkout    checkoutBuilder
	db          *sql.DB
	frontendURL string
}

func NewTopupService(payments topupPaymentRepo, checkout checkoutBuilder, db *sql.DB, frontendURL string) *TopupService {
	return &TopupService{
		payments:    payments,
		checkout:    checkout,
		db:          db,
		frontendURL: frontendURL,
	}
}

type TopupRequest struct {
	UserID uuid.UUID
	// Amount is what the user pays; CreditAmount is what lands on the
	// balance. They differ during promotions. Zero CreditAmount means credit
	// the paid amount.
	Amount       decimal.Decimal
	CreditAmount decimal.Decimal
}

type TopupResult struct {
	OrderID      string
	PaymentURL   string
	Amount       decimal.Decimal
	CreditAmount decimal.Decimal
}

func (s *TopupService) CreateTopup(ctx context.Context, req TopupRequest) (*TopupResult, error) {
	if req.Amount.LessThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("CreateTopup: %w", domain.ErrInvalidAmount)
	}

	credit := req.CreditAmount
	if credit.IsZero() {
		credit = req.Amount
	}

	now := time.Now().UTC()
	orderID := domain.NewOrderID(req.UserID, now.UnixMilli())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateTopup: begin tx: %w", err)
	}
	defer tx.Rollback()

	created, err := s.payments.UpsertPending(ctx, tx, &domain.Payment{
		PaymentID:    orderID,
		UserID:       req.UserID,
		AmountToPay:  req.Amount,
		CreditAmount: credit,
		Method:       domain.PaymentMethodCrypto,
		Status:       domain.PaymentStatusPending,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateTopup: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateTopup: commit: %w", err)
	}

	log := logging.FromContext(ctx)
	if created {
		log.Info("top-up payment created", "order_id", orderID, "amount", req.Amount.String(), "credit", credit.String())
	} else {
		log.Info("top-up payment already exists", "order_id", orderID)
	}

	successURL := s.frontendURL + "/dashboard?payment=success&orderId=" + orderID
	cancelURL := s.frontendURL + "/topup?payment=canceled&orderId=" + orderID

	return &TopupResult{
		OrderID:      orderID,
		PaymentURL:   s.checkout.CheckoutURL(orderID, req.Amount, "USD", successURL, cancelURL),
		Amount:       req.Amount,
		CreditAmount: credit,
	}, nil
}
