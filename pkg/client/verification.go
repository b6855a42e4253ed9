package client

import (
	"context"
	"net/url"
	"time"
)

// VerificationRequest is the API representation of a verification request.
type VerificationRequest struct {
	ID             string     `json:"id"`
	Requester      string     `json:"requester"`
	CredentialHash string     `json:"credential_hash"`
	Type           string     `json:"verification_type"`
	State          string     `json:"state"`
	Verified       *bool      `json:"verified,omitempty"`
	ResultRef      string     `json:"result_ref,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RequestVerificationRequest is the payload for RequestVerification. Proof
// carries the eight opaque proof components and PublicSignals the four
// public inputs.
type RequestVerificationRequest struct {
	CredentialHash   string    `json:"credential_hash"`
	VerificationType string    `json:"verification_type"`
	Proof            [8]string `json:"proof"`
	PublicSignals    [4]string `json:"public_signals"`
}

// CredentialStatus summarises completed verifications for one hash.
type CredentialStatus struct {
	CredentialHash    string `json:"credential_hash"`
	Verified          bool   `json:"verified"`
	VerificationCount uint64 `json:"verification_count"`
}

// RequestVerification opens a pending verification request and returns its ID.
func (c *Client) RequestVerification(ctx context.Context, req RequestVerificationRequest) (string, error) {
	var resp struct {
		RequestID string `json:"request_id"`
	}
	if err := c.post(ctx, "/api/v1/verifications", req, &resp); err != nil {
		return "", err
	}
	return resp.RequestID, nil
}

// CompleteVerification records the outcome of a pending request as the
// logged-in verifier. Each request completes exactly once.
func (c *Client) CompleteVerification(ctx context.Context, requestID string, verified bool, resultRef string) error {
	return c.post(ctx, "/api/v1/verifications/"+url.PathEscape(requestID)+"/complete",
		map[string]any{"verified": verified, "result_ref": resultRef}, nil)
}

// GetVerificationRequest fetches a verification request by ID.
func (c *Client) GetVerificationRequest(ctx context.Context, requestID string) (*VerificationRequest, error) {
	var req VerificationRequest
	if err := c.get(ctx, "/api/v1/verifications/"+url.PathEscape(requestID), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetCredentialStatus fetches the verification summary for a credential hash.
// Unknown hashes report verified=false with a zero count.
func (c *Client) GetCredentialStatus(ctx context.Context, hash string) (*CredentialStatus, error) {
	var status CredentialStatus
	if err := c.get(ctx, "/api/v1/credentials/"+url.PathEscape(hash)+"/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// BatchCredentialStatus reports per-hash verified flags for up to 100 hashes,
// in input order.
func (c *Client) BatchCredentialStatus(ctx context.Context, hashes []string) ([]bool, error) {
	var resp struct {
		Verified []bool `json:"verified"`
	}
	if err := c.post(ctx, "/api/v1/credentials/status/batch",
		map[string][]string{"hashes": hashes}, &resp); err != nil {
		return nil, err
	}
	return resp.Verified, nil
}
