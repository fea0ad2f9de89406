package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
	"github.com/sourpls22-ux/marketplace-backend/internal/service/reconcile"
)

type webhookReconciler interface {
	Reconcile(ctx context.Context, event domain.ProviderEvent) (reconcile.Result, error)
}

// WebhookHandler is the signed push channel. The provider signs the exact
// raw request body with base64(HMAC-SHA256) keyed by the base64-decoded
// shared secret; nothing is parsed before that signature checks out.
type WebhookHandler struct {
	rec    webhookReconciler
	secret string
}

func NewWebhookHandler(rec webhookReconciler, secret string) *WebhookHandler {
	return &WebhookHandler{rec: rec, secret: secret}
}

// webhookPayload mirrors the provider's notification body. PaidAmount takes
// precedence over Amount when both are present.
type webhookPayload struct {
	OrderID       string           `json:"OrderId"`
	Status        json.Number      `json:"Status"`
	PaidAmount    *decimal.Decimal `json:"PaidAmount"`
	Amount        *decimal.Decimal `json:"Amount"`
	OrderCurrency string           `json:"OrderCurrency"`
}

func (h *WebhookHandler) ReceivePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	sig := r.Header.Get("signature")
	if !verifySignature(body, sig, h.secret) {
		log.Warn("webhook signature verification failed", "received_signature", sig)
		RespondAppError(w, ErrInvalidSignature, nil)
		return
	}

	// Authentic but malformed payloads are acknowledged so the provider
	// stops redelivering them; there is nothing a retry would fix.
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn("authentic webhook payload failed to parse", "error", err)
		RespondSuccess(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	if payload.OrderID == "" {
		log.Warn("authentic webhook payload missing OrderId")
		RespondSuccess(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	event := domain.ProviderEvent{
		OrderID:  payload.OrderID,
		Status:   payload.Status.String(),
		Amount:   payload.amount(),
		Currency: payload.OrderCurrency,
		UserID:   domain.ParseOrderUserID(payload.OrderID),
		Raw:      body,
	}

	result, err := h.rec.Reconcile(r.Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownOrder) {
			// Confirmed order we cannot attribute to any user. Acknowledge;
			// the row appears once the initiating flow lands and the
			// scheduler picks it up from there.
			log.Warn("webhook for unknown order acknowledged", "order_id", payload.OrderID)
			RespondSuccess(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
		log.Error("webhook reconciliation failed", "order_id", payload.OrderID, "error", err)
		RespondAppError(w, ErrStorageFailure, nil)
		return
	}

	if result.AlreadyCompleted {
		log.Info("duplicate webhook delivery", "order_id", payload.OrderID)
	}
	RespondSuccess(w, http.StatusOK, map[string]bool{"ok": true})
}

func (p webhookPayload) amount() decimal.Decimal {
	if p.PaidAmount != nil {
		return *p.PaidAmount
	}
	if p.Amount != nil {
		return *p.Amount
	}
	return decimal.Zero
}

// verifySignature checks base64(HMAC-SHA256(base64decode(secret), body))
// in constant time. An empty signature or unconfigured secret never passes.
func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
