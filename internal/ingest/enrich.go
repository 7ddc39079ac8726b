package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

// Enricher applies optional geocoding enrichment to merged cycle events.
type Enricher struct {
	geocoder domain.Geocoder
	timeout  time.Duration
	logger   *slog.Logger
}

// NewEnricher creates an Enricher whose pass over a cycle is bounded by
// timeout. Pass a nil geocoder to disable geocoding enrichment.
func NewEnricher(geocoder domain.Geocoder, timeout time.Duration, logger *slog.Logger) *Enricher {
	return &Enricher{
		geocoder: geocoder,
		timeout:  timeout,
		logger:   logger,
	}
}

// Enrich returns the events with place names filled in where the geocoder can
// supply them. Events not reached before the deadline are returned as they
// are. The input slice is modified in place.
func (e *Enricher) Enrich(ctx context.Context, events []domain.Event) []domain.Event {
	if e.geocoder == nil {
		return events
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	for i := range events {
		if ctx.Err() != nil {
			e.logger.Warn("enrichment deadline reached", "processed", i, "skipped", len(events)-i)
			break
		}
		events[i] = domain.EnrichWithGeocoding(ctx, events[i], e.geocoder, e.logger)
	}
	return events
}
