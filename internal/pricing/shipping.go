package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// RateClient queries the external shipping-rate service. The core treats it
// as a pure lookup: origin, destination and parcel weight in, cost and ETA
// out.
type RateClient interface {
	Quote(ctx context.Context, origin, destination string, weightGrams int) (ShippingQuote, error)
}

type httpRateClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRateClient(baseURL string, timeout time.Duration) RateClient {
	return &httpRateClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *httpRateClient) Quote(ctx context.Context, origin, destination string, weightGrams int) (ShippingQuote, error) {
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("weight", strconv.Itoa(weightGrams))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rates?"+params.Encode(), nil)
	if err != nil {
		return ShippingQuote{}, fmt.Errorf("shipping: failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return ShippingQuote{}, fmt.Errorf("shipping: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ShippingQuote{}, fmt.Errorf("shipping: unexpected status %d", resp.StatusCode)
	}

	var quote ShippingQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return ShippingQuote{}, fmt.Errorf("shipping: failed to decode response: %w", err)
	}

	return quote, nil
}
