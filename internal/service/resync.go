package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
	"github.com/sourpls22-ux/marketplace-backend/internal/service/atlos"
	"github.com/sourpls22-ux/marketplace-backend/internal/service/reconcile"
)

type providerClient interface {
	GetPayment(ctx context.Context, orderID string) (*atlos.PaymentState, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, event domain.ProviderEvent) (reconcile.Result, error)
}

// ResyncOutcome reports what one poll of the provider did. Raw is the
// provider's response as received, passed through to the resync endpoint.
type ResyncOutcome struct {
	Raw     json.RawMessage
	Pending bool
	Already bool
}

// ResyncService is the authenticated poll channel: it queries the provider
// for an order and feeds the normalized event to the reconciler. It backs
// the manual resync endpoint, the scheduler sweep, and the socket watcher's
// hints.
type ResyncService struct {
	provider providerClient
	rec      reconciler
}

func NewResyncService(provider providerClient, rec reconciler) *ResyncService {
	return &ResyncService{provider: provider, rec: rec}
}

func (s *ResyncService) Resync(ctx context.Context, orderID string) (*ResyncOutcome, error) {
	state, err := s.provider.GetPayment(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("Resync: %w", err)
	}

	event := domain.ProviderEvent{
		OrderID:  orderID,
		Status:   state.Status,
		Amount:   state.Amount,
		Currency: state.Currency,
		UserID:   domain.ParseOrderUserID(orderID),
		Raw:      state.Raw,
	}

	if !event.Succeeded() {
		return &ResyncOutcome{Raw: state.Raw, Pending: true}, nil
	}

	result, err := s.rec.Reconcile(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("Resync: %w", err)
	}

	return &ResyncOutcome{Raw: state.Raw, Already: result.AlreadyCompleted}, nil
}
