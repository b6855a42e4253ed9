package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Grant is the API representation of a role grant.
type Grant struct {
	Principal string    `json:"principal"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	GrantedBy string    `json:"granted_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrantRole grants a role ("issuer" or "verifier") to a principal. The
// logged-in caller must be the ledger owner.
func (c *Client) GrantRole(ctx context.Context, role, principal string) error {
	return c.post(ctx, "/api/v1/access/grants",
		map[string]string{"role": role, "principal": principal}, nil)
}

// RevokeRole revokes a role from a principal. Owner only.
func (c *Client) RevokeRole(ctx context.Context, role, principal string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/access/grants",
		map[string]string{"role": role, "principal": principal}, nil)
}

// ListGrants fetches all grants held by a principal.
func (c *Client) ListGrants(ctx context.Context, principal string) ([]Grant, error) {
	var resp struct {
		Grants []Grant `json:"grants"`
	}
	if err := c.get(ctx, "/api/v1/access/grants/"+url.PathEscape(principal), &resp); err != nil {
		return nil, err
	}
	return resp.Grants, nil
}

// IsIssuer reports whether a principal may issue reputation events.
func (c *Client) IsIssuer(ctx context.Context, principal string) (bool, error) {
	var resp struct {
		Issuer bool `json:"issuer"`
	}
	if err := c.get(ctx, "/api/v1/access/issuers/"+url.PathEscape(principal), &resp); err != nil {
		return false, err
	}
	return resp.Issuer, nil
}

// IsVerifier reports whether a principal may complete verification requests.
func (c *Client) IsVerifier(ctx context.Context, principal string) (bool, error) {
	var resp struct {
		Verifier bool `json:"verifier"`
	}
	if err := c.get(ctx, "/api/v1/access/verifiers/"+url.PathEscape(principal), &resp); err != nil {
		return false, err
	}
	return resp.Verifier, nil
}
