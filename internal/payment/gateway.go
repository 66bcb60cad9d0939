// Package payment drives the external payment gateway: issuing transaction
// tokens for online orders and turning the widget's terminal callbacks (and
// the gateway's server-side notifications) into lifecycle transitions.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gerai/storefront/internal/order"
)

// GatewayError is a failure reported by the gateway API itself, as opposed to
// a transport failure reaching it.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Message)
}

// HTTPGateway implements order.PaymentGateway against the gateway's charge
// API, authenticated with the merchant server key.
type HTTPGateway struct {
	baseURL   string
	serverKey string
	client    *http.Client
}

func NewHTTPGateway(baseURL, serverKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   baseURL,
		serverKey: serverKey,
		client:    &http.Client{Timeout: timeout},
	}
}

type chargeRequest struct {
	OrderID     string  `json:"order_id"`
	GrossAmount float64 `json:"gross_amount"`
}

type chargeResponse struct {
	Token         string `json:"token"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// CreateTransaction registers the order total with the gateway and returns
// the opaque token the client widget needs, plus the gateway's transaction
// reference.
func (g *HTTPGateway) CreateTransaction(ctx context.Context, o *order.Order) (string, string, error) {
	body, err := json.Marshal(chargeRequest{
		OrderID:     o.ID.String(),
		GrossAmount: o.TotalPrice,
	})
	if err != nil {
		return "", "", fmt.Errorf("gateway: failed to marshal charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("gateway: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.serverKey, "")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("gateway: request failed: %w", err)
	}
	defer resp.Body.Close()

	var charge chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&charge); err != nil {
		return "", "", fmt.Errorf("gateway: failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", "", &GatewayError{StatusCode: resp.StatusCode, Message: charge.Message}
	}

	return charge.Token, charge.TransactionID, nil
}
