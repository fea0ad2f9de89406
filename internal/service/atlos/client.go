// Package atlos is the client for the Atlos crypto payment provider: the
// authenticated query endpoint and the hosted-checkout URL builder.
package atlos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/sourpls22-ux/marketplace-backend/internal/domain"
)

type Client struct {
	http        *resty.Client
	merchantID  string
	checkoutURL string
}

func NewClient(baseURL, checkoutURL, merchantID, apiSecret string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiSecret).
		SetTimeout(timeout)

	return &Client{
		http:        httpClient,
		merchantID:  merchantID,
		checkoutURL: checkoutURL,
	}
}

// paymentStatus tolerates the provider's two encodings of the status field:
// the numeric code (100 = confirmed) and the status string.
type paymentStatus string

func (s *paymentStatus) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*s = paymentStatus(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("paymentStatus: unexpected value %s", string(data))
	}
	*s = paymentStatus(asNumber.String())
	return nil
}

type paymentResponse struct {
	OrderID  string          `json:"orderId"`
	Status   paymentStatus   `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// PaymentState is the provider's view of one order, normalized, with the raw
// response preserved for the resync endpoint's passthrough.
type PaymentState struct {
	OrderID  string
	Status   string
	Amount   decimal.Decimal
	Currency string
	Raw      json.RawMessage
}

// GetPayment queries the provider for the current state of an order.
// Failures are transient by classification; the scheduler retries them on
// its next sweep.
func (c *Client) GetPayment(ctx context.Context, orderID string) (*PaymentState, error) {
	var parsed paymentResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&parsed).
		Get("/v1/payments/" + url.PathEscape(orderID))
	if err != nil {
		return nil, fmt.Errorf("GetPayment: %w: %w", domain.ErrProviderUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GetPayment: %w: provider returned %s", domain.ErrProviderUnavailable, resp.Status())
	}

	state := &PaymentState{
		OrderID:  parsed.OrderID,
		Status:   string(parsed.Status),
		Amount:   parsed.Amount,
		Currency: parsed.Currency,
		Raw:      json.RawMessage(resp.Body()),
	}
	if state.OrderID == "" {
		state.OrderID = orderID
	}
	return state, nil
}

// CheckoutURL builds the hosted-payment URL the user is redirected to. The
// provider calls back over the webhook; nothing is POSTed here.
func (c *Client) CheckoutURL(orderID string, amount decimal.Decimal, currency, successURL, cancelURL string) string {
	q := url.Values{}
	q.Set("merchantId", c.merchantID)
	q.Set("orderId", orderID)
	q.Set("orderAmount", amount.String())
	q.Set("orderCurrency", currency)
	q.Set("onSuccess", successURL)
	q.Set("onCanceled", cancelURL)
	return c.checkoutURL + "?" + q.Encode()
}
