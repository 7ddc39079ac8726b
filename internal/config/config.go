package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Ingestion modes.
const (
	ModeLive   = "live"
	ModeStatic = "static"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Mode            string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	RefreshInterval time.Duration
	SourceTimeout   time.Duration
	HTTPRetryMax    int

	// Live source configuration.
	USGSURL          string
	USGSMinMagnitude float64
	USGSWindow       time.Duration
	USGSLimit        int
	VolcanoFeedURL   string
	HazardFeedURL    string

	// Kafka sink configuration.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// SQLite archive; empty disables it.
	ArchivePath string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// EnrichTimeout bounds geocoding enrichment across a whole cycle.
	EnrichTimeout time.Duration
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	v.SetDefault("MODE", ModeLive)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("REFRESH_INTERVAL", "5m")
	v.SetDefault("SOURCE_TIMEOUT", "15s")
	v.SetDefault("HTTP_RETRY_MAX", "2")
	v.SetDefault("USGS_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query")
	v.SetDefault("USGS_MIN_MAGNITUDE", "4.0")
	v.SetDefault("USGS_WINDOW", "24h")
	v.SetDefault("USGS_LIMIT", "100")
	v.SetDefault("VOLCANO_FEED_URL", "https://volcano.si.edu/news/WeeklyVolcanoRSS.xml")
	v.SetDefault("HAZARD_FEED_URL", "https://www.gdacs.org/xml/rss.xml")
	v.SetDefault("KAFKA_ENABLED", "false")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "hazard-events")
	v.SetDefault("ARCHIVE_PATH", "")
	v.SetDefault("MAPBOX_TOKEN", "")
	v.SetDefault("MAPBOX_ENABLED", "")
	v.SetDefault("MAPBOX_TIMEOUT", "5s")
	v.SetDefault("MAPBOX_CACHE_SIZE", "1000")
	v.SetDefault("ENRICH_TIMEOUT", "30s")
	return v
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	v := newViper()

	shutdownTimeout, err := parsePositiveDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration(v, "REFRESH_INTERVAL")
	if err != nil {
		return nil, err
	}
	sourceTimeout, err := parsePositiveDuration(v, "SOURCE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	usgsWindow, err := parsePositiveDuration(v, "USGS_WINDOW")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration(v, "MAPBOX_TIMEOUT")
	if err != nil {
		return nil, err
	}
	enrichTimeout, err := parsePositiveDuration(v, "ENRICH_TIMEOUT")
	if err != nil {
		return nil, err
	}

	retryMax, err := strconv.Atoi(v.GetString("HTTP_RETRY_MAX"))
	if err != nil || retryMax < 0 || retryMax > 10 {
		return nil, errors.New("invalid HTTP_RETRY_MAX: must be between 0 and 10")
	}
	minMag, err := strconv.ParseFloat(v.GetString("USGS_MIN_MAGNITUDE"), 64)
	if err != nil || minMag < 0 {
		return nil, errors.New("invalid USGS_MIN_MAGNITUDE")
	}
	limit, err := strconv.Atoi(v.GetString("USGS_LIMIT"))
	if err != nil || limit <= 0 || limit > 20000 {
		return nil, errors.New("invalid USGS_LIMIT: must be between 1 and 20000")
	}
	kafkaEnabled, err := strconv.ParseBool(v.GetString("KAFKA_ENABLED"))
	if err != nil {
		return nil, errors.New("invalid KAFKA_ENABLED")
	}

	mapboxToken := v.GetString("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if s := v.GetString("MAPBOX_ENABLED"); s != "" {
		mapboxEnabled = s == "true"
	}

	cfg := &Config{
		Mode:            strings.ToLower(v.GetString("MODE")),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		ShutdownTimeout: shutdownTimeout,
		RefreshInterval: refreshInterval,
		SourceTimeout:   sourceTimeout,
		HTTPRetryMax:    retryMax,

		USGSURL:          v.GetString("USGS_URL"),
		USGSMinMagnitude: minMag,
		USGSWindow:       usgsWindow,
		USGSLimit:        limit,
		VolcanoFeedURL:   v.GetString("VOLCANO_FEED_URL"),
		HazardFeedURL:    v.GetString("HAZARD_FEED_URL"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: parseBrokers(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		ArchivePath: v.GetString("ARCHIVE_PATH"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(v),
		EnrichTimeout:   enrichTimeout,
	}

	if cfg.Mode != ModeLive && cfg.Mode != ModeStatic {
		return nil, fmt.Errorf("invalid MODE %q: must be %q or %q", cfg.Mode, ModeLive, ModeStatic)
	}
	if cfg.Mode == ModeLive {
		if cfg.USGSURL == "" || cfg.VolcanoFeedURL == "" || cfg.HazardFeedURL == "" {
			return nil, errors.New("USGS_URL, VOLCANO_FEED_URL and HAZARD_FEED_URL are required in live mode")
		}
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseMapboxCacheSize(v *viper.Viper) int {
	if n, err := strconv.Atoi(v.GetString("MAPBOX_CACHE_SIZE")); err == nil && n > 0 {
		return n
	}
	return 1000
}
