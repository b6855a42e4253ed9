package email

import (
	"context"

	"go.uber.org/zap"
)

// NoopSender drops alert mail on the floor, logging it instead. It is the
// default when no SMTP host is configured, so a dev ledger never tries to
// reach a mail server.
type NoopSender struct {
	logger *zap.Logger
}

func NewNoopSender(logger *zap.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (n *NoopSender) Send(_ context.Context, to, subject, body string) error {
	n.logger.Warn("alert mail suppressed (no smtp configured)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}
