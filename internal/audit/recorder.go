package audit

import (
	"context"

	"github.com/credence-id/credence/internal/events"
)

// Recorder adapts a Chain to the events.Sink interface, so the chain can be
// registered directly as an event subscriber. Events arrive in commit order
// per key, which is the order the chain preserves.
type Recorder struct {
	chain Chain
}

// NewRecorder creates a Recorder over the given chain.
func NewRecorder(chain Chain) *Recorder {
	return &Recorder{chain: chain}
}

// Publish implements events.Sink.
func (r *Recorder) Publish(ctx context.Context, ev events.Event) error {
	_, err := r.chain.Append(ctx, ev.Type, ev.Key, ev.Actor, ev.Payload)
	return err
}
