package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type pinger struct{ err error }

func (p *pinger) HealthPing(context.Context) error { return p.err }

func TestCheckerProbeTransitions(t *testing.T) {
	dep := &pinger{}
	c := NewChecker("store", dep, zerolog.Nop(), time.Second)

	if c.IsHealthy() {
		t.Fatal("checker must start unhealthy")
	}
	if !c.Probe(context.Background()) || !c.IsHealthy() {
		t.Fatal("successful probe must flip to healthy")
	}

	dep.err = errors.New("down")
	if c.Probe(context.Background()) || c.IsHealthy() {
		t.Fatal("failed probe must flip to unhealthy")
	}

	dep.err = nil
	if !c.Probe(context.Background()) || !c.IsHealthy() {
		t.Fatal("recovery must flip back to healthy")
	}
}
