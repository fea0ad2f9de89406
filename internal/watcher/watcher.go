// Package watcher maintains the best-effort realtime connection to the
// payment provider's push gateway. Pushed frames are treated as hints, not
// as a source of truth: the payload is not cryptographically authenticated,
// so a recognized payment update only triggers a poll-based resync for the
// named order.
package watcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sourpls22-ux/marketplace-backend/internal/service"
)

type resyncer interface {
	Resync(ctx context.Context, orderID string) (*service.ResyncOutcome, error)
}

type Watcher struct {
	gatewayURL    string
	resync        resyncer
	logger        *slog.Logger
	dialer        *websocket.Dialer
	resyncTimeout time.Duration
}

func New(gatewayURL string, resync resyncer, logger *slog.Logger) *Watcher {
	return &Watcher{
		gatewayURL:    gatewayURL,
		resync:        resync,
		logger:        logger,
		dialer:        websocket.DefaultDialer,
		resyncTimeout: 15 * time.Second,
	}
}

type pushFrame struct {
	Type string `json:"type"`
	Data struct {
		OrderID string `json:"orderId"`
	} `json:"data"`
}

// Run connects to the push gateway and reads frames until the connection
// drops or ctx is canceled. There is no automatic reconnect: when the
// connection dies the watcher logs it and returns, and the scheduler sweep
// remains the correctness backstop. Reconnect with backoff is a known
// follow-up.
func (w *Watcher) Run(ctx context.Context) error {
	conn, _, err := w.dialer.DialContext(ctx, w.gatewayURL, nil)
	if err != nil {
		w.logger.Error("push gateway dial failed", "url", w.gatewayURL, "error", err)
		return err
	}
	w.logger.Info("push gateway connected", "url", w.gatewayURL)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("push gateway watcher stopped")
				return nil
			}
			w.logger.Warn("push gateway connection closed", "error", err)
			return err
		}
		w.handleFrame(ctx, message)
	}
}

func (w *Watcher) handleFrame(ctx context.Context, message []byte) {
	orderID, ok := parseFrame(message)
	if !ok {
		return
	}

	w.logger.Info("payment update pushed", "order_id", orderID)

	resyncCtx, cancel := context.WithTimeout(ctx, w.resyncTimeout)
	defer cancel()

	if _, err := w.resync.Resync(resyncCtx, orderID); err != nil {
		w.logger.Warn("push-triggered resync failed", "order_id", orderID, "error", err)
	}
}

// parseFrame extracts the order id from a payment:update frame. Anything
// else, including frames that are not JSON at all, is ignored silently.
func parseFrame(message []byte) (string, bool) {
	var frame pushFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return "", false
	}
	if frame.Type != "payment:update" || frame.Data.OrderID == "" {
		return "", false
	}
	return frame.Data.OrderID, true
}
