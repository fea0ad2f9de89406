package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/service"
)

type stubResyncer struct {
	outcome *service.ResyncOutcome
	err     error
	orderID string
}

func (s *stubResyncer) Resync(_ context.Context, orderID string) (*service.ResyncOutcome, error) {
	s.orderID = orderID
	return s.outcome, s.err
}

func getResync(h *ResyncHandler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/payments/resync"+query, nil)
	rec := httptest.NewRecorder()
	h.Resync(rec, req)
	return rec
}

func TestResync_RequiresOrderID(t *testing.T) {
	stub := &stubResyncer{}
	h := NewResyncHandler(stub)

	resp := getResync(h, "")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, stub.orderID)

	var envelope APIResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "MISSING_ORDER_ID", envelope.Error.Code)
}

func TestResync_PassesThroughProviderResponse(t *testing.T) {
	raw := json.RawMessage(`{"orderId":"mk_x_1","status":"confirmed","amount":"25"}`)
	stub := &stubResyncer{outcome: &service.ResyncOutcome{Raw: raw}}
	h := NewResyncHandler(stub)

	resp := getResync(h, "?orderId=mk_x_1")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "mk_x_1", stub.orderID)

	var envelope struct {
		Success bool           `json:"success"`
		Data    resyncResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.True(t, envelope.Data.OK)
	assert.JSONEq(t, string(raw), string(envelope.Data.Data))
	assert.False(t, envelope.Data.Pending)
}

func TestResync_ReportsPending(t *testing.T) {
	stub := &stubResyncer{outcome: &service.ResyncOutcome{
		Raw:     json.RawMessage(`{"status":"pending"}`),
		Pending: true,
	}}
	h := NewResyncHandler(stub)

	resp := getResync(h, "?orderId=mk_x_1")

	assert.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data resyncResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Pending)
}

func TestResync_ProviderFailureAnswers500(t *testing.T) {
	stub := &stubResyncer{err: fmt.Errorf("Resync: %w: connect refused", domain.ErrProviderUnavailable)}
	h := NewResyncHandler(stub)

	resp := getResync(h, "?orderId=mk_x_1")

	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	var envelope APIResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", envelope.Error.Code)
}

func TestResync_UnknownOrderAnswers404(t *testing.T) {
	stub := &stubResyncer{err: fmt.Errorf("Resync: %w", domain.ErrUnknownOrder)}
	h := NewResyncHandler(stub)

	resp := getResync(h, "?orderId=order_42")

	assert.Equal(t, http.StatusNotFound, resp.Code)
}
