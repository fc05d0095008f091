// Package health monitors dependency liveness behind a cached flag so the
// HTTP health endpoint never blocks on a probe.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is implemented by components exposing a specialized health check.
// Ping must return nil when the component is healthy.
type Pinger interface {
	HealthPing(ctx context.Context) error
}

// Checker periodically probes a Pinger and caches the result.
type Checker struct {
	name         string
	dep          Pinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewChecker creates a checker for one dependency. It starts unhealthy until
// the first successful probe.
func NewChecker(name string, dep Pinger, log zerolog.Logger, probeTimeout time.Duration) *Checker {
	c := &Checker{name: name, dep: dep, log: log, probeTimeout: probeTimeout}
	c.healthy.Store(0)
	return c
}

// IsHealthy returns the cached health status (non-blocking).
func (c *Checker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Probe runs one health check and updates the cached flag.
func (c *Checker) Probe(ctx context.Context) bool {
	to := c.probeTimeout
	if to <= 0 {
		to = 2 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, to)
	defer cancel()

	if err := c.dep.HealthPing(pctx); err != nil {
		if c.healthy.Swap(0) == 1 {
			c.log.Error().Stack().Str("checker", c.name).Err(err).Msg("dependency health: DOWN")
		}
		return false
	}
	if c.healthy.Swap(1) == 0 {
		c.log.Info().Str("checker", c.name).Msg("dependency health: UP")
	}
	return true
}

// Start begins periodic health checking until ctx is done.
func (c *Checker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Probe(ctx)
		}
	}
}
