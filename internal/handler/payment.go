package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/auth"
	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
	"github.com/sourpls22-ux/marketplace-backend/internal/service"
)

type topupCreator interface {
	CreateTopup(ctx context.Context, req service.TopupRequest) (*service.TopupResult, error)
}

type paymentLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Payment, error)
}

type balanceGetter interface {
	GetBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
}

type PaymentHandler struct {
	topups   topupCreator
	payments paymentLister
	users    balanceGetter
}

func NewPaymentHandler(topups topupCreator, payments paymentLister, users balanceGetter) *PaymentHandler {
	return &PaymentHandler{topups: topups, payments: payments, users: users}
}

type topupRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
}

type topupResponse struct {
	OrderID      string          `json:"order_id"`
	PaymentURL   string          `json:"payment_url"`
	Amount       decimal.Decimal `json:"amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
}

func (h *PaymentHandler) CreateTopup(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req topupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	result, err := h.topups.CreateTopup(r.Context(), service.TopupRequest{
		UserID:       userID,
		Amount:       req.Amount,
		CreditAmount: req.CreditAmount,
	})
	if err != nil {
		logging.FromContext(r.Context()).Error("top-up creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, topupResponse{
		OrderID:      result.OrderID,
		PaymentURL:   result.PaymentURL,
		Amount:       result.Amount,
		CreditAmount: result.CreditAmount,
	})
}

type paymentDTO struct {
	PaymentID    string          `json:"payment_id"`
	AmountToPay  decimal.Decimal `json:"amount_to_pay"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	Method       string          `json:"method"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (h *PaymentHandler) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	payments, err := h.payments.ListByUser(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list payments", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]paymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, paymentDTO{
			PaymentID:    p.PaymentID,
			AmountToPay:  p.AmountToPay,
			CreditAmount: p.CreditAmount,
			Method:       string(p.Method),
			Status:       string(p.Status),
			CreatedAt:    p.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, map[string]any{"payments": dtos})
}

func (h *PaymentHandler) GetMyBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	balance, err := h.users.GetBalance(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get balance", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}
