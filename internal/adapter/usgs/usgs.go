// Package usgs reads recent earthquakes from the USGS FDSN event service.
package usgs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/couchcryptid/hazardwatch/internal/adapter/fetch"
	"github.com/couchcryptid/hazardwatch/internal/domain"
)

const sourceName = "USGS"

// Config controls the catalog query.
type Config struct {
	URL          string
	MinMagnitude float64
	Window       time.Duration
	Limit        int
}

// Source implements ingest.Source over the USGS GeoJSON feed.
type Source struct {
	client *retryablehttp.Client
	cfg    Config
}

// NewSource creates a USGS earthquake source.
func NewSource(client *retryablehttp.Client, cfg Config) *Source {
	return &Source{client: client, cfg: cfg}
}

func (s *Source) Name() string { return "usgs" }

// Fetch queries earthquakes from the configured window ending now.
func (s *Source) Fetch(ctx context.Context) ([]domain.Event, error) {
	body, err := fetch.Get(ctx, s.client, s.queryURL(domain.Now()), "application/geo+json, application/json")
	if err != nil {
		return nil, err
	}
	return ParseFeatureCollection(body)
}

func (s *Source) queryURL(now time.Time) string {
	now = now.UTC()
	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {now.Add(-s.cfg.Window).Format("2006-01-02T15:04:05")},
		"endtime":      {now.Format("2006-01-02T15:04:05")},
		"minmagnitude": {strconv.FormatFloat(s.cfg.MinMagnitude, 'f', -1, 64)},
		"orderby":      {"time"},
		"limit":        {strconv.Itoa(s.cfg.Limit)},
	}
	return s.cfg.URL + "?" + params.Encode()
}

// ParseFeatureCollection maps a GeoJSON FeatureCollection onto earthquake
// events. Features without a geometry keep a nil Geo.
func ParseFeatureCollection(body []byte) ([]domain.Event, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("decode usgs response: invalid json")
	}
	features := gjson.GetBytes(body, "features")
	if !features.IsArray() {
		return nil, errors.New("decode usgs response: missing features array")
	}

	var events []domain.Event
	for _, f := range features.Array() {
		events = append(events, parseFeature(f))
	}
	return events, nil
}

func parseFeature(f gjson.Result) domain.Event {
	props := f.Get("properties")
	place := props.Get("place").String()

	e := domain.Event{
		ID:          f.Get("id").String(),
		Kind:        domain.KindEarthquake,
		Title:       props.Get("title").String(),
		Description: place,
		OccurredAt:  time.UnixMilli(props.Get("time").Int()).UTC(),
		Source:      sourceName,
		Status:      props.Get("status").String(),
		Place:       place,
		Details:     map[string]string{},
	}

	if mag := props.Get("mag"); mag.Exists() && mag.Type == gjson.Number {
		e.Magnitude = domain.Float(mag.Float())
	}
	if e.Title == "" && e.Magnitude != nil {
		e.Title = fmt.Sprintf("M %.1f - %s", *e.Magnitude, place)
	}

	coords := f.Get("geometry.coordinates").Array()
	if len(coords) >= 2 {
		e.Geo = &domain.Geo{Lat: coords[1].Float(), Lon: coords[0].Float()}
	}
	if len(coords) >= 3 {
		e.Details["depth"] = strconv.FormatFloat(coords[2].Float(), 'f', -1, 64)
	}

	if alert := props.Get("alert").String(); alert != "" {
		e.Details["alert_level"] = alert
	}
	if props.Get("tsunami").Int() == 1 {
		e.Details["tsunami"] = "possible"
	}
	if felt := props.Get("felt"); felt.Type == gjson.Number {
		e.Details["felt_reports"] = felt.String()
	}
	if u := props.Get("url").String(); u != "" {
		e.Details["url"] = u
	}
	return e
}
