package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ── Stubs ────────────────────────────────────────────────────────────────

type stubLister struct {
	endpoints []Endpoint
}

func (s *stubLister) ListActiveEndpoints(_ context.Context) ([]Endpoint, error) {
	return s.endpoints, nil
}

type stubDisabler struct {
	disabled map[uuid.UUID]int
}

func (s *stubDisabler) DisableEndpoint(_ context.Context, id uuid.UUID) error {
	s.disabled[id]++
	return nil
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestProbeEndpoint_success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	prober := New(nil, nil, Config{ProbeTimeout: 5 * time.Second}, zap.NewNop())
	if !prober.probeEndpoint(context.Background(), srv.URL) {
		t.Error("expected probe to succeed")
	}
}

func TestProbeEndpoint_failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	prober := New(nil, nil, Config{ProbeTimeout: 5 * time.Second}, zap.NewNop())
	if prober.probeEndpoint(context.Background(), srv.URL) {
		t.Error("expected probe to fail")
	}
}

func TestProbeEndpoint_getFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	prober := New(nil, nil, Config{ProbeTimeout: 5 * time.Second}, zap.NewNop())
	if !prober.probeEndpoint(context.Background(), srv.URL) {
		t.Error("expected GET fallback to succeed")
	}
}

func TestCheckAll_disablesAfterThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	subID := uuid.New()
	lister := &stubLister{endpoints: []Endpoint{{ID: subID, URL: srv.URL}}}
	disabler := &stubDisabler{disabled: make(map[uuid.UUID]int)}

	prober := New(lister, disabler, Config{
		ProbeTimeout:  5 * time.Second,
		FailThreshold: 3,
	}, zap.NewNop())

	// Two failed rounds stay under the threshold.
	for i := 0; i < 2; i++ {
		prober.CheckAll(context.Background())
	}
	if disabler.disabled[subID] != 0 {
		t.Fatal("endpoint disabled before threshold")
	}

	prober.CheckAll(context.Background())
	if disabler.disabled[subID] != 1 {
		t.Errorf("expected endpoint disabled exactly once, got %d", disabler.disabled[subID])
	}

	// Further rounds past the threshold do not disable again.
	prober.CheckAll(context.Background())
	if disabler.disabled[subID] != 1 {
		t.Errorf("disable should fire only at the threshold, got %d", disabler.disabled[subID])
	}
}

func TestCheckAll_successResetsCounter(t *testing.T) {
	failing := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	subID := uuid.New()
	lister := &stubLister{endpoints: []Endpoint{{ID: subID, URL: srv.URL}}}
	disabler := &stubDisabler{disabled: make(map[uuid.UUID]int)}

	prober := New(lister, disabler, Config{
		ProbeTimeout:  5 * time.Second,
		FailThreshold: 3,
	}, zap.NewNop())

	// Two failures, one recovery, then two more failures: never reaches 3.
	prober.CheckAll(context.Background())
	prober.CheckAll(context.Background())
	failing = false
	prober.CheckAll(context.Background())
	failing = true
	prober.CheckAll(context.Background())
	prober.CheckAll(context.Background())

	if len(disabler.disabled) != 0 {
		t.Error("recovered endpoint should not be disabled")
	}
}
