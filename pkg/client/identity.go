package client

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Identity is the API representation of an identity record.
type Identity struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	CredentialHash string    `json:"credential_hash"`
	MetadataRef    string    `json:"metadata_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Active         bool      `json:"active"`
}

// RegisterIdentityRequest is the payload for RegisterIdentity and
// UpdateIdentity. Metadata, if set, is stored server-side and addressed by
// the returned metadata ref; MetadataRef references an already-stored blob.
type RegisterIdentityRequest struct {
	CredentialHash string          `json:"credential_hash"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	MetadataRef    string          `json:"metadata_ref,omitempty"`
}

// RegisterIdentity binds a credential hash to the logged-in principal.
func (c *Client) RegisterIdentity(ctx context.Context, reg RegisterIdentityRequest) (string, error) {
	var resp struct {
		ID          string `json:"id"`
		MetadataRef string `json:"metadata_ref"`
	}
	if err := c.post(ctx, "/api/v1/identities", reg, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpdateIdentity rotates the logged-in principal's credential hash.
func (c *Client) UpdateIdentity(ctx context.Context, reg RegisterIdentityRequest) (*Identity, error) {
	var ident Identity
	if err := c.call(ctx, "PATCH", "/api/v1/identities/me", reg, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// DeactivateIdentity permanently deactivates the logged-in principal's identity.
func (c *Client) DeactivateIdentity(ctx context.Context) error {
	return c.post(ctx, "/api/v1/identities/me/deactivate", nil, nil)
}

// GetMyIdentity fetches the logged-in principal's identity.
func (c *Client) GetMyIdentity(ctx context.Context) (*Identity, error) {
	var ident Identity
	if err := c.get(ctx, "/api/v1/identities/me", &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// GetIdentityByOwner fetches the identity owned by a principal.
func (c *Client) GetIdentityByOwner(ctx context.Context, owner string) (*Identity, error) {
	var ident Identity
	if err := c.get(ctx, "/api/v1/identities/owner/"+url.PathEscape(owner), &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// GetIdentityByHash fetches the identity a credential hash is bound to.
func (c *Client) GetIdentityByHash(ctx context.Context, hash string) (*Identity, error) {
	var ident Identity
	if err := c.get(ctx, "/api/v1/identities/hash/"+url.PathEscape(hash), &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// HashActive reports whether a credential hash is bound to an active identity.
func (c *Client) HashActive(ctx context.Context, hash string) (bool, error) {
	var resp struct {
		Active bool `json:"active"`
	}
	if err := c.get(ctx, "/api/v1/identities/hash/"+url.PathEscape(hash)+"/active", &resp); err != nil {
		return false, err
	}
	return resp.Active, nil
}

// GetMetadata fetches a stored metadata blob by its content-addressed ref.
func (c *Client) GetMetadata(ctx context.Context, ref string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/api/v1/metadata/"+url.PathEscape(ref), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
