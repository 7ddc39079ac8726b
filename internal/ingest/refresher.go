package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/hazardwatch/internal/domain"
	"github.com/couchcryptid/hazardwatch/internal/observability"
)

// CycleLoader produces one ingestion cycle.
type CycleLoader interface {
	Load(ctx context.Context) Cycle
}

// BatchLoader writes multiple events to a downstream destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.Event) error
}

// Sink is a named downstream destination for committed cycles.
type Sink struct {
	Name   string
	Loader BatchLoader
}

// Refresher runs ingestion cycles on a fixed interval and commits them to the store.
type Refresher struct {
	loader   CycleLoader
	store    *Store
	sinks    []Sink
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewRefresher creates a Refresher that commits cycles from loader into store
// and hands accepted live cycles to sinks.
func NewRefresher(loader CycleLoader, store *Store, sinks []Sink, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		loader:   loader,
		store:    store,
		sinks:    sinks,
		interval: interval,
		clock:    clockwork.NewRealClock(),
		logger:   logger,
		metrics:  metrics,
	}
}

// WithClock swaps the ticker clock, for tests.
func (r *Refresher) WithClock(c clockwork.Clock) *Refresher {
	r.clock = c
	return r
}

// CheckReadiness returns nil once a cycle has committed, or an error
// describing why the service is not yet ready.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if _, ok := r.store.Snapshot(); !ok {
		return errors.New("no ingestion cycle has completed yet")
	}
	return nil
}

// Run refreshes once immediately and then on every tick until the context is
// cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "interval", r.interval)
	r.metrics.RefresherUp.Set(1)
	defer r.metrics.RefresherUp.Set(0)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.RefreshNow(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			r.RefreshNow(ctx)
		}
	}
}

// RefreshNow runs one cycle and commits it. It returns the snapshot current
// after the attempt and whether this cycle was the one committed. A cycle
// overtaken by a newer one, or cut short by cancellation, is discarded.
func (r *Refresher) RefreshNow(ctx context.Context) (Snapshot, bool) {
	token := r.store.Begin()
	start := time.Now()

	cycle := r.loader.Load(ctx)

	if ctx.Err() != nil {
		r.logger.Info("cycle abandoned", "seq", token, "reason", ctx.Err())
		snap, _ := r.store.Snapshot()
		return snap, false
	}

	if !r.store.Commit(token, cycle) {
		r.metrics.StaleCommits.Inc()
		r.logger.Info("stale cycle dropped", "seq", token)
		snap, _ := r.store.Snapshot()
		return snap, false
	}

	r.metrics.CyclesTotal.Inc()
	r.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	r.metrics.EventsCurrent.Set(float64(len(cycle.Events)))
	r.logger.Info("cycle committed",
		"seq", token,
		"events", len(cycle.Events),
		"fallback", cycle.Fallback,
		"duration", time.Since(start),
	)

	if !cycle.Fallback {
		r.publish(ctx, cycle.Events)
	}

	snap, _ := r.store.Snapshot()
	return snap, true
}

// publish hands events to every sink. Sink failures are logged and counted
// but never fail the cycle.
func (r *Refresher) publish(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}
	for _, s := range r.sinks {
		if err := s.Loader.LoadBatch(ctx, events); err != nil {
			r.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
			r.logger.Error("sink write failed", "sink", s.Name, "error", err, "batch_size", len(events))
		}
	}
}
