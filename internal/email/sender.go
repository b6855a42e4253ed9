// Package email delivers operator alert mail. The ledger sends exactly one
// kind of message today: an integrity alert when the audit chain fails
// verification at startup.
package email

import "context"

// Sender delivers plain-text mail to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
