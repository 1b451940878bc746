package ingest

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tokenpulse/oracle/internal/classify"
	"github.com/tokenpulse/oracle/internal/domain"
	"github.com/tokenpulse/oracle/internal/metrics"
)

const defaultQueueSize = 1024

// Router receives scored signals. Implementations route each signal to
// the single writer for its asset.
type Router interface {
	Route(sig domain.ScoredSignal)
}

// Dispatcher runs classification across a worker pool. Workers share no
// state; per-asset ordering is the router's concern, not ours.
type Dispatcher struct {
	classifier *classify.Classifier
	filter     *Filter
	router     Router
	logger     *slog.Logger

	jobs    chan domain.RawSignal
	workers int
	wg      sync.WaitGroup
}

func NewDispatcher(classifier *classify.Classifier, filter *Filter, router Router, workers int, logger *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		classifier: classifier,
		filter:     filter,
		router:     router,
		logger:     logger,
		jobs:       make(chan domain.RawSignal, defaultQueueSize),
		workers:    workers,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for raw := range d.jobs {
				d.process(raw)
			}
		}()
	}
}

// Enqueue hands a raw signal to the worker pool, assigning an ID when the
// collector did not provide one. Blocks when the queue is full so a burst
// backpressures the poller instead of dropping signals.
func (d *Dispatcher) Enqueue(raw domain.RawSignal) {
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}
	d.jobs <- raw
}

// Stop drains the queue and waits for in-flight work to finish.
func (d *Dispatcher) Stop() {
	close(d.jobs)
	d.wg.Wait()
}

func (d *Dispatcher) process(raw domain.RawSignal) {
	if keep, reason := d.filter.Keep(raw); !keep {
		metrics.SignalsFiltered.WithLabelValues(reason).Inc()
		return
	}

	start := time.Now()
	scored, err := classify.Score(d.classifier, raw)
	metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrEmptySignal) {
			metrics.SignalsFiltered.WithLabelValues(ReasonEmptyText).Inc()
			return
		}
		d.logger.Warn("scoring failed", "signal_id", raw.ID, "asset", raw.AssetID, "error", err)
		return
	}

	metrics.SignalsScored.WithLabelValues(string(scored.Label)).Inc()
	d.router.Route(scored)
}
