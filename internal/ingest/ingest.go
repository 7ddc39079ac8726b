package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/hazardwatch/internal/domain"
	"github.com/couchcryptid/hazardwatch/internal/observability"
)

// Source fetches the current events of one upstream feed.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Event, error)
}

// SourceResult records the outcome of one source within a cycle.
type SourceResult struct {
	Source   string        `json:"source"`
	Events   int           `json:"events"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Failed reports whether the source contributed nothing because of an error.
func (r SourceResult) Failed() bool {
	return r.Err != nil
}

// Cycle is the merged outcome of one ingestion pass over every source.
type Cycle struct {
	Events    []domain.Event
	Results   []SourceResult
	Fallback  bool
	StartedAt time.Time
}

// Ingester fans out to every source concurrently and merges the results.
type Ingester struct {
	sources  []Source
	fallback Source
	enricher *Enricher
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewIngester creates an Ingester. fallback is consulted only when every
// source fails and may be nil. Pass a nil enricher to skip geocoding
// enrichment.
func NewIngester(sources []Source, fallback Source, enricher *Enricher, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Ingester {
	return &Ingester{
		sources:  sources,
		fallback: fallback,
		enricher: enricher,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Load runs one ingestion cycle. Every source runs to completion or to its own
// timeout; a failing source never cancels the others. When all of them fail
// the fallback source is served instead.
func (in *Ingester) Load(ctx context.Context) Cycle {
	cycle := Cycle{
		StartedAt: domain.Now(),
		Results:   make([]SourceResult, len(in.sources)),
	}
	batches := make([][]domain.Event, len(in.sources))

	var g errgroup.Group
	for i, src := range in.sources {
		i, src := i, src
		g.Go(func() error {
			batches[i], cycle.Results[i] = in.fetch(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Event
	failed := 0
	for i, res := range cycle.Results {
		if res.Failed() {
			failed++
			continue
		}
		merged = append(merged, batches[i]...)
	}

	if failed == len(in.sources) && in.fallback != nil {
		events, res := in.fetch(ctx, in.fallback)
		in.logger.Warn("all sources failed, serving fallback events",
			"sources", len(in.sources),
			"fallback_events", len(events),
		)
		in.metrics.FallbackCycles.Inc()
		merged = events
		cycle.Results = append(cycle.Results, res)
		cycle.Fallback = true
	}

	cycle.Events = dedupe(merged)
	if in.enricher != nil {
		cycle.Events = in.enricher.Enrich(ctx, cycle.Events)
	}
	return cycle
}

type fetched struct {
	events []domain.Event
	err    error
}

// fetch runs one source under its own timeout, converting panics into errors.
// The timeout holds even for a source that ignores its context: the call is
// abandoned and its late result discarded.
func (in *Ingester) fetch(ctx context.Context, src Source) (events []domain.Event, res SourceResult) {
	res.Source = src.Name()
	start := time.Now()

	defer func() {
		res.Duration = time.Since(start)
		res.Events = len(events)
		in.metrics.SourceFetch.WithLabelValues(res.Source).Observe(res.Duration.Seconds())
		if res.Err != nil {
			in.metrics.SourceErrors.WithLabelValues(res.Source).Inc()
			in.logger.Warn("source fetch failed", "source", res.Source, "error", res.Err)
			return
		}
		in.metrics.SourceEvents.WithLabelValues(res.Source).Add(float64(res.Events))
		in.logger.Debug("source fetched", "source", res.Source, "events", res.Events, "duration", res.Duration)
	}()

	ctx, cancel := context.WithTimeout(ctx, in.timeout)
	defer cancel()

	name := res.Source
	done := make(chan fetched, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetched{err: fmt.Errorf("source %s panicked: %v", name, r)}
			}
		}()
		events, err := src.Fetch(ctx)
		done <- fetched{events: events, err: err}
	}()

	var out fetched
	select {
	case out = <-done:
	case <-ctx.Done():
		out = fetched{err: ctx.Err()}
	}
	if out.err != nil {
		res.Err = fmt.Errorf("fetch %s: %w", res.Source, out.err)
		return nil, res
	}
	for i := range out.events {
		if out.events[i].Source == "" {
			out.events[i].Source = res.Source
		}
	}
	return out.events, res
}

// dedupe assigns IDs to events that lack one and keeps the first occurrence of
// each ID, preserving order.
func dedupe(events []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		if e.ID == "" {
			e.ID = domain.GenerateID(e.Kind, e.Title, e.Geo, e.OccurredAt)
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
