package client

import (
	"context"
	"net/url"
	"time"
)

// Account is the API representation of a reputation account.
type Account struct {
	Principal     string    `json:"principal"`
	TotalScore    int64     `json:"total_score"`
	TrustLevel    int       `json:"trust_level"`
	PositiveCount int64     `json:"positive_count"`
	NegativeCount int64     `json:"negative_count"`
	LastUpdated   time.Time `json:"last_updated"`
}

// ReputationEvent is one entry in a principal's score history.
type ReputationEvent struct {
	ID          string    `json:"id"`
	Target      string    `json:"target"`
	Issuer      string    `json:"issuer"`
	Delta       int64     `json:"delta"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description,omitempty"`
	ProofRef    string    `json:"proof_ref"`
	Timestamp   time.Time `json:"timestamp"`
}

// IssueEventRequest is the payload for IssueReputationEvent.
type IssueEventRequest struct {
	Target      string `json:"target"`
	Delta       int64  `json:"delta"`
	EventType   string `json:"event_type"`
	Description string `json:"description,omitempty"`
	ProofRef    string `json:"proof_ref"`
}

// IssueEventResult reports the target account state after an event applies.
type IssueEventResult struct {
	EventID    string `json:"event_id"`
	Target     string `json:"target"`
	TotalScore int64  `json:"total_score"`
	TrustLevel int    `json:"trust_level"`
}

// IssueReputationEvent appends a reputation event as the logged-in issuer.
func (c *Client) IssueReputationEvent(ctx context.Context, req IssueEventRequest) (*IssueEventResult, error) {
	var res IssueEventResult
	if err := c.post(ctx, "/api/v1/reputation/events", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetAccount fetches a principal's reputation account.
func (c *Client) GetAccount(ctx context.Context, principal string) (*Account, error) {
	var acct Account
	if err := c.get(ctx, "/api/v1/reputation/accounts/"+url.PathEscape(principal), &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// ListReputationEvents fetches a principal's full score history.
func (c *Client) ListReputationEvents(ctx context.Context, principal string) ([]ReputationEvent, error) {
	var resp struct {
		Events []ReputationEvent `json:"events"`
	}
	if err := c.get(ctx, "/api/v1/reputation/accounts/"+url.PathEscape(principal)+"/events", &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// GetReputationEvent fetches a single reputation event by ID.
func (c *Client) GetReputationEvent(ctx context.Context, id string) (*ReputationEvent, error) {
	var ev ReputationEvent
	if err := c.get(ctx, "/api/v1/reputation/events/"+url.PathEscape(id), &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
