package cli

import (
	"errors"
	"fmt"
	"log/slog"

	kafkaadapter "github.com/couchcryptid/hazardwatch/internal/adapter/kafka"
	"github.com/couchcryptid/hazardwatch/internal/adapter/feed"
	"github.com/couchcryptid/hazardwatch/internal/adapter/fetch"
	"github.com/couchcryptid/hazardwatch/internal/adapter/mapbox"
	"github.com/couchcryptid/hazardwatch/internal/adapter/sqlite"
	"github.com/couchcryptid/hazardwatch/internal/adapter/static"
	"github.com/couchcryptid/hazardwatch/internal/adapter/usgs"
	"github.com/couchcryptid/hazardwatch/internal/config"
	"github.com/couchcryptid/hazardwatch/internal/dashboard"
	"github.com/couchcryptid/hazardwatch/internal/domain"
	"github.com/couchcryptid/hazardwatch/internal/ingest"
	"github.com/couchcryptid/hazardwatch/internal/observability"
)

// app is the wired service graph shared by serve and export.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	doc       *static.Document
	ingester  *ingest.Ingester
	store     *ingest.Store
	refresher *ingest.Refresher
	dashboard *dashboard.Dashboard
	archive   *sqlite.Archive
	writer    *kafkaadapter.Writer
}

// buildApp wires sources, enrichment, sinks, and the dashboard from cfg.
// withSinks is false for one-shot commands that must not publish.
func buildApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, withSinks bool) (*app, error) {
	doc, err := static.Load()
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	fallback := static.NewSource(doc)
	var sources []ingest.Source
	switch cfg.Mode {
	case config.ModeStatic:
		sources = []ingest.Source{fallback}
	default:
		client := fetch.NewClient(cfg.HTTPRetryMax, logger)
		sources = []ingest.Source{
			usgs.NewSource(client, usgs.Config{
				URL:          cfg.USGSURL,
				MinMagnitude: cfg.USGSMinMagnitude,
				Window:       cfg.USGSWindow,
				Limit:        cfg.USGSLimit,
			}),
			feed.NewVolcanoSource(client, cfg.VolcanoFeedURL),
			feed.NewHazardSource(client, cfg.HazardFeedURL),
		}
	}
	logger.Info("ingestion sources configured", "mode", cfg.Mode, "sources", len(sources))

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		doc:     doc,
		store:   ingest.NewStore(),
	}
	a.ingester = ingest.NewIngester(sources, fallback, ingest.NewEnricher(geocoder, cfg.EnrichTimeout, logger), cfg.SourceTimeout, logger, metrics)

	var sinks []ingest.Sink
	if withSinks {
		if cfg.KafkaEnabled {
			a.writer = kafkaadapter.NewWriter(cfg, logger)
			sinks = append(sinks, ingest.Sink{Name: "kafka", Loader: a.writer})
			logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
		}
		if cfg.ArchivePath != "" {
			archive, err := sqlite.Open(cfg.ArchivePath)
			if err != nil {
				_ = a.close()
				return nil, err
			}
			a.archive = archive
			sinks = append(sinks, ingest.Sink{Name: "archive", Loader: archive})
			logger.Info("sqlite archive enabled", "path", cfg.ArchivePath)
		}
	}

	a.refresher = ingest.NewRefresher(a.ingester, a.store, sinks, cfg.RefreshInterval, logger, metrics)
	a.dashboard = dashboard.New(a.store, doc)
	return a, nil
}

// close releases sink connections.
func (a *app) close() error {
	var errs []error
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka writer: %w", err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
	}
	return errors.Join(errs...)
}
