package watcher

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourpls22-ux/marketplace-backend/internal/service"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name        string
		message     string
		wantOrderID string
		wantOK      bool
	}{
		{
			name:        "payment update",
			message:     `{"type":"payment:update","data":{"orderId":"mk_abc_123"}}`,
			wantOrderID: "mk_abc_123",
			wantOK:      true,
		},
		{
			name:    "other frame type",
			message: `{"type":"rate:update","data":{"orderId":"mk_abc_123"}}`,
			wantOK:  false,
		},
		{
			name:    "payment update without order id",
			message: `{"type":"payment:update","data":{}}`,
			wantOK:  false,
		},
		{
			name:    "not json",
			message: `ping`,
			wantOK:  false,
		},
		{
			name:    "empty message",
			message: ``,
			wantOK:  false,
		},
		{
			name:        "extra fields ignored",
			message:     `{"type":"payment:update","data":{"orderId":"mk_x_9","status":"confirmed"},"ts":172}`,
			wantOrderID: "mk_x_9",
			wantOK:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderID, ok := parseFrame([]byte(tt.message))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOrderID, orderID)
		})
	}
}

type recordingResyncer struct {
	calls chan string
}

func (r *recordingResyncer) Resync(_ context.Context, orderID string) (*service.ResyncOutcome, error) {
	r.calls <- orderID
	return &service.ResyncOutcome{}, nil
}

func gatewayServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestRun_TriggersResyncOnPushedUpdate(t *testing.T) {
	srv := gatewayServer(t, []string{
		`{"type":"heartbeat"}`,
		`{"type":"payment:update","data":{"orderId":"mk_user_42"}}`,
	})
	defer srv.Close()

	resync := &recordingResyncer{calls: make(chan string, 4)}
	w := New("ws"+strings.TrimPrefix(srv.URL, "http"), resync, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case orderID := <-resync.calls:
		assert.Equal(t, "mk_user_42", orderID)
	case <-time.After(2 * time.Second):
		t.Fatal("pushed update did not trigger a resync")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after context cancellation")
	}
}

func TestRun_ReturnsErrorWhenGatewayUnreachable(t *testing.T) {
	resync := &recordingResyncer{calls: make(chan string, 1)}
	w := New("ws://127.0.0.1:1/gateway/socket/", resync, slog.Default())

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, resync.calls)
}
