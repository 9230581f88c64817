package job

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"bluerate/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type RateRefresher interface {
	Refresh(ctx context.Context) (domain.RefreshResult, error)
}

// RatePoller refreshes rates on a fixed interval and owns the last-known-good state.
// A failed cycle keeps the previous sample and marks the state unhealthy.
type RatePoller struct {
	tracer       trace.Tracer
	service      RateRefresher
	pollInterval time.Duration
	state        atomic.Pointer[domain.RefreshState]
	now          func() time.Time
}

func NewRatePoller(tracer trace.Tracer, service RateRefresher, pollIntervalSecs int) *RatePoller {
	interval := time.Duration(pollIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	p := &RatePoller{tracer: tracer, service: service, pollInterval: interval, now: time.Now}
	p.state.Store(&domain.RefreshState{})
	return p
}

// Start blocks until ctx is cancelled.
func (p *RatePoller) Start(ctx context.Context) {
	if p.service == nil {
		log.Println("Rate poller disabled: no service")
		<-ctx.Done()
		return
	}
	runLoop(ctx, "Rate poller", p.pollInterval, p.runOnce)
}

// State returns a snapshot of the last refresh outcome.
func (p *RatePoller) State() domain.RefreshState {
	return *p.state.Load()
}

func (p *RatePoller) runOnce(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "rate-poller.run-once")
	defer span.End()

	prev := p.state.Load()
	result, err := p.service.Refresh(ctx)
	if err != nil {
		log.Printf("rate refresh error: %v", err)
		span.RecordError(err)
		p.state.Store(&domain.RefreshState{
			Sample:     prev.Sample,
			LastUpdate: prev.LastUpdate,
			Healthy:    false,
			LastError:  err.Error(),
		})
		return
	}

	next := &domain.RefreshState{Sample: result.Sample, LastUpdate: p.now().UTC(), Healthy: true}
	if len(result.Warnings) > 0 {
		next.LastError = strings.Join(result.Warnings, "; ")
		log.Printf("Warning: rate refresh completed with %d warnings: %s", len(result.Warnings), next.LastError)
	}
	p.state.Store(next)

	if result.Sample != nil {
		span.SetAttributes(
			attribute.Float64("buy", result.Sample.Buy),
			attribute.Float64("sell", result.Sample.Sell),
			attribute.String("official_source", result.Official),
		)
	}
}
