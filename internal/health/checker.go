// Package health probes webhook subscriber endpoints in the background and
// deactivates subscriptions whose endpoints stay unreachable, so the
// dispatcher stops burning retries on dead URLs.
package health

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds prober configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Endpoint is the minimal data needed to probe one subscriber.
type Endpoint struct {
	ID  uuid.UUID
	URL string
}

// EndpointLister returns the active subscriber endpoints to probe.
type EndpointLister interface {
	ListActiveEndpoints(ctx context.Context) ([]Endpoint, error)
}

// EndpointDisabler deactivates a subscription whose endpoint is dead.
type EndpointDisabler interface {
	DisableEndpoint(ctx context.Context, id uuid.UUID) error
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(success bool)

// Prober runs periodic endpoint probes.
type Prober struct {
	lister     EndpointLister
	disabler   EndpointDisabler
	httpClient *http.Client
	mu         sync.Mutex
	failCounts map[uuid.UUID]int
	cfg        Config
	onMetrics  MetricsRecordFunc
	logger     *zap.Logger
}

// New creates a new Prober.
func New(lister EndpointLister, disabler EndpointDisabler, cfg Config, logger *zap.Logger) *Prober {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 5 * time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	return &Prober{
		lister:     lister,
		disabler:   disabler,
		httpClient: &http.Client{Timeout: cfg.ProbeTimeout},
		failCounts: make(map[uuid.UUID]int),
		cfg:        cfg,
		logger:     logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (p *Prober) SetMetricsRecord(fn MetricsRecordFunc) {
	p.onMetrics = fn
}

// Start runs the probe loop until quit is signalled.
func (p *Prober) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(p.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.cfg.CheckInterval-time.Second)
			p.CheckAll(ctx)
			cancel()
		case <-quit:
			return
		}
	}
}

// CheckAll probes all active subscriber endpoints with bounded concurrency.
// An endpoint is disabled after FailThreshold consecutive failed rounds; one
// successful probe resets its counter.
func (p *Prober) CheckAll(ctx context.Context) {
	endpoints, err := p.lister.ListActiveEndpoints(ctx)
	if err != nil {
		p.logger.Error("health: list endpoints", zap.Error(err))
		return
	}

	sem := make(chan struct{}, 10)
	var wg sync.WaitGroup

	for _, e := range endpoints {
		wg.Add(1)
		go func(ep Endpoint) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			success := p.probeEndpoint(ctx, ep.URL)

			if p.onMetrics != nil {
				p.onMetrics(success)
			}

			p.mu.Lock()
			if success {
				p.failCounts[ep.ID] = 0
			} else {
				p.failCounts[ep.ID]++
			}
			count := p.failCounts[ep.ID]
			p.mu.Unlock()

			if success {
				return
			}
			if count == p.cfg.FailThreshold {
				if err := p.disabler.DisableEndpoint(ctx, ep.ID); err != nil {
					p.logger.Warn("health: disable endpoint", zap.Error(err))
					return
				}
				p.logger.Warn("health: subscription disabled",
					zap.String("subscription_id", ep.ID.String()),
					zap.String("url", ep.URL),
					zap.Int("fail_count", count),
				)
			}
		}(e)
	}

	wg.Wait()
}

// probeEndpoint attempts HEAD then GET, returning true on any 2xx response.
func (p *Prober) probeEndpoint(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return true
		}
	}

	// Some subscribers reject HEAD; fall back to GET.
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	resp, err = p.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
