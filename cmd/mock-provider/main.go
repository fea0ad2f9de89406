// mock-provider emulates the Atlos payment provider for local development:
// an in-memory payment store, the authenticated query endpoint, a signed
// webhook dispatch on completion, and a websocket gateway pushing
// payment:update frames.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
)

type payment struct {
	OrderID  string          `json:"orderId"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type provider struct {
	mu       sync.Mutex
	payments map[string]*payment
	sockets  map[*websocket.Conn]struct{}

	webhookURL string
	secret     string
	upgrader   websocket.Upgrader
}

func newProvider(webhookURL, secret string) *provider {
	return &provider{
		payments:   make(map[string]*payment),
		sockets:    make(map[*websocket.Conn]struct{}),
		webhookURL: webhookURL,
		secret:     secret,
		upgrader:   websocket.Upgrader{},
	}
}

// createPayment registers a pending payment, as the checkout flow would.
func (p *provider) createPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID  string          `json:"orderId"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Currency == "" {
		req.Currency = "USDT"
	}

	p.mu.Lock()
	p.payments[req.OrderID] = &payment{
		OrderID:  req.OrderID,
		Status:   "pending",
		Amount:   req.Amount,
		Currency: req.Currency,
	}
	p.mu.Unlock()

	slog.Info("payment created", "order_id", req.OrderID, "amount", req.Amount)
	writeJSON(w, http.StatusCreated, map[string]string{"orderId": req.OrderID, "status": "pending"})
}

// confirmPayment flips a payment to confirmed and fires both push channels.
func (p *provider) confirmPayment(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	p.mu.Lock()
	pay, ok := p.payments[orderID]
	if ok {
		pay.Status = "confirmed"
	}
	p.mu.Unlock()

	if !ok {
		http.Error(w, "payment not found", http.StatusNotFound)
		return
	}

	go p.dispatchWebhook(pay)
	p.broadcastUpdate(pay)

	writeJSON(w, http.StatusOK, map[string]string{"orderId": orderID, "status": "confirmed"})
}

func (p *provider) getPayment(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	p.mu.Lock()
	pay, ok := p.payments[orderID]
	p.mu.Unlock()

	if !ok {
		http.Error(w, "payment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, pay)
}

// dispatchWebhook POSTs the completion notification signed the way the real
// provider signs it: base64(HMAC-SHA256(base64decode(secret), body)).
func (p *provider) dispatchWebhook(pay *payment) {
	body, err := json.Marshal(map[string]any{
		"OrderId":       pay.OrderID,
		"Status":        100,
		"PaidAmount":    pay.Amount,
		"OrderCurrency": pay.Currency,
	})
	if err != nil {
		slog.Error("failed to marshal webhook body", "error", err)
		return
	}

	key, err := base64.StdEncoding.DecodeString(p.secret)
	if err != nil {
		slog.Error("webhook secret is not valid base64", "error", err)
		return
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("failed to build webhook request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("signature", sig)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		slog.Error("webhook delivery failed", "order_id", pay.OrderID, "error", err)
		return
	}
	defer resp.Body.Close()
	slog.Info("webhook delivered", "order_id", pay.OrderID, "status", resp.StatusCode)
}

func (p *provider) gateway(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	p.mu.Lock()
	p.sockets[conn] = struct{}{}
	p.mu.Unlock()
	slog.Info("gateway client connected", "remote", conn.RemoteAddr().String())

	// Drain inbound frames until the client goes away.
	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.sockets, conn)
			p.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (p *provider) broadcastUpdate(pay *payment) {
	frame, err := json.Marshal(map[string]any{
		"type": "payment:update",
		"data": map[string]string{"orderId": pay.OrderID, "status": pay.Status},
	})
	if err != nil {
		slog.Error("failed to marshal gateway frame", "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for conn := range p.sockets {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			slog.Warn("gateway push failed", "remote", conn.RemoteAddr().String(), "error", err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func main() {
	logging.Init("mock-provider", "info", os.Getenv("APP_ENV"))

	webhookURL := os.Getenv("WEBHOOK_URL")
	if webhookURL == "" {
		webhookURL = "http://localhost:8080/webhooks/payments"
	}
	secret := os.Getenv("ATLOS_API_SECRET")
	if secret == "" {
		secret = base64.StdEncoding.EncodeToString([]byte("mock-provider-secret"))
	}

	p := newProvider(webhookURL, secret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /v1/payments", p.createPayment)
	mux.HandleFunc("GET /v1/payments/{id}", p.getPayment)
	mux.HandleFunc("POST /v1/payments/{id}/confirm", p.confirmPayment)
	mux.HandleFunc("GET /gateway/socket/", p.gateway)

	slog.Info("mock provider started", "addr", ":8081", "webhook_url", webhookURL)
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
