package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogSink writes events to zap instead of delivering them anywhere.
// Use in development or when no downstream consumer is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink backed by the given logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish implements Sink.
func (s *LogSink) Publish(_ context.Context, ev Event) error {
	s.logger.Info("domain event",
		zap.String("type", ev.Type),
		zap.String("key", ev.Key),
		zap.String("actor", ev.Actor),
		zap.Any("payload", ev.Payload),
	)
	return nil
}

// MemorySink records every published event in order. It is intended for
// tests that assert on emitted events.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish implements Sink.
func (s *MemorySink) Publish(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of everything published so far, in publish order.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByType returns recorded events of the given type, in publish order.
func (s *MemorySink) ByType(eventType string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// MultiSink fans an event out to several sinks in order. The first sink
// error is returned after all sinks have been attempted.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink over the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Publish implements Sink.
func (s *MultiSink) Publish(ctx context.Context, ev Event) error {
	var first error
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
