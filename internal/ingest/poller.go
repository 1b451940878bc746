package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/metrics"
)

// Poller fetches from every collector on a fixed cadence and feeds the
// dispatcher. One fetch failure never blocks the other collectors.
type Poller struct {
	collectors []domain.Collector
	dispatcher *Dispatcher
	clock      clockwork.Clock
	interval   time.Duration
	limiter    *rate.Limiter
	logger     *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewPoller(collectors []domain.Collector, dispatcher *Dispatcher, clock clockwork.Clock, interval time.Duration, limiter *rate.Limiter, logger *slog.Logger) *Poller {
	return &Poller{
		collectors: collectors,
		dispatcher: dispatcher,
		clock:      clock,
		interval:   interval,
		limiter:    limiter,
		logger:     logger,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Poller) Stop() {
	close(p.stopCh)
	<-p.doneCh
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.doneCh)

	// First sweep happens immediately so the service has data before the
	// first full interval elapses.
	p.sweep(ctx)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			p.sweep(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	for _, c := range p.collectors {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return
			}
		}

		signals, err := c.Fetch(ctx)
		if err != nil {
			metrics.CollectorErrors.WithLabelValues(c.Name()).Inc()
			p.logger.Error("collector fetch failed", "collector", c.Name(), "error", err)
			continue
		}

		metrics.SignalsCollected.WithLabelValues(c.Name()).Add(float64(len(signals)))
		for _, sig := range signals {
			if sig.ObservedAt.IsZero() {
				sig.ObservedAt = p.clock.Now()
			}
			p.dispatcher.Enqueue(sig)
		}
	}
}
