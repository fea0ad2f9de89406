package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sourpls22-ux/marketplace-backend/internal/logging"
	"github.com/sourpls22-ux/marketplace-backend/internal/service"
)

type resyncer interface {
	Resync(ctx context.Context, orderID string) (*service.ResyncOutcome, error)
}

// ResyncHandler is the manual face of the poll channel: it queries the
// provider for one order synchronously and reports what happened.
type ResyncHandler struct {
	resync resyncer
}

func NewResyncHandler(resync resyncer) *ResyncHandler {
	return &ResyncHandler{resync: resync}
}

type resyncResponse struct {
	OK      bool            `json:"ok"`
	Data    json.RawMessage `json:"data"`
	Pending bool            `json:"pending,omitempty"`
	Already bool            `json:"already,omitempty"`
}

func (h *ResyncHandler) Resync(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		RespondAppError(w, ErrMissingOrderID, nil)
		return
	}

	outcome, err := h.resync.Resync(r.Context(), orderID)
	if err != nil {
		logging.FromContext(r.Context()).Error("resync failed", "order_id", orderID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, resyncResponse{
		OK:      true,
		Data:    outcome.Raw,
		Pending: outcome.Pending,
		Already: outcome.Already,
	})
}
