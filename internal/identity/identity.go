// Package identity resolves bearer credentials against the external identity
// provider. Authentication itself lives outside the core: this package only
// trusts the provider's answer and exposes the resulting actor and role.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
)

var ErrUnauthenticated = errors.New("identity: invalid or expired credential")

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleOperator Role = "OPERATOR"
)

// Actor is the authenticated caller as reported by the identity provider.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (a *Actor) IsOperator() bool {
	return a.Role == RoleOperator
}

type Resolver interface {
	Resolve(ctx context.Context, bearerToken string) (*Actor, error)
}

type httpResolver struct {
	baseURL string
	client  *http.Client
}

func NewHTTPResolver(baseURL string, timeout time.Duration) Resolver {
	return &httpResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *httpResolver) Resolve(ctx context.Context, bearerToken string) (*Actor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("identity: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearerToken)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: unexpected status %d", resp.StatusCode)
	}

	var actor Actor
	if err := json.NewDecoder(resp.Body).Decode(&actor); err != nil {
		return nil, fmt.Errorf("identity: failed to decode response: %w", err)
	}

	return &actor, nil
}
