package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// AuditEntry is one entry in the hash-chained audit log.
type AuditEntry struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Key       string    `json:"key"`
	Actor     string    `json:"actor"`
	DataHash  string    `json:"data_hash"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// AuditOverview reports the chain length and current root hash.
type AuditOverview struct {
	Entries int    `json:"entries"`
	Root    string `json:"root"`
}

// GetAuditOverview fetches the audit chain length and root.
func (c *Client) GetAuditOverview(ctx context.Context) (*AuditOverview, error) {
	var ov AuditOverview
	if err := c.get(ctx, "/api/v1/audit", &ov); err != nil {
		return nil, err
	}
	return &ov, nil
}

// VerifyAuditChain asks the server to walk the full chain. It returns nil
// when the chain is intact and an error describing the break otherwise.
func (c *Client) VerifyAuditChain(ctx context.Context) error {
	var resp struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	if err := c.get(ctx, "/api/v1/audit/verify", &resp); err != nil {
		return err
	}
	if !resp.Valid {
		return fmt.Errorf("audit chain invalid: %s", resp.Error)
	}
	return nil
}

// GetAuditEntry fetches a single chain entry by index.
func (c *Client) GetAuditEntry(ctx context.Context, index int) (*AuditEntry, error) {
	var entry AuditEntry
	if err := c.get(ctx, fmt.Sprintf("/api/v1/audit/entries/%d", index), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// WebhookSubscription is the API representation of a webhook subscription.
type WebhookSubscription struct {
	ID        string    `json:"id"`
	Principal string    `json:"principal"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscribeWebhook registers a webhook for the given event types. The
// returned secret signs deliveries (X-Credence-Signature) and is shown once.
func (c *Client) SubscribeWebhook(ctx context.Context, targetURL string, eventTypes []string) (*WebhookSubscription, string, error) {
	var resp struct {
		Subscription WebhookSubscription `json:"subscription"`
		Secret       string              `json:"secret"`
	}
	if err := c.post(ctx, "/api/v1/webhooks",
		map[string]any{"url": targetURL, "events": eventTypes}, &resp); err != nil {
		return nil, "", err
	}
	return &resp.Subscription, resp.Secret, nil
}

// ListWebhooks fetches the logged-in principal's subscriptions.
func (c *Client) ListWebhooks(ctx context.Context) ([]WebhookSubscription, error) {
	var resp struct {
		Subscriptions []WebhookSubscription `json:"subscriptions"`
	}
	if err := c.get(ctx, "/api/v1/webhooks", &resp); err != nil {
		return nil, err
	}
	return resp.Subscriptions, nil
}

// UnsubscribeWebhook deletes a subscription by ID.
func (c *Client) UnsubscribeWebhook(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/webhooks/"+url.PathEscape(id), nil, nil)
}
