// Package static serves the embedded reference document: sample events,
// news headlines and science explanations.
package static

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

//go:embed samples.yaml
var samplesYAML []byte

// Sample is one reference event as written in the document.
type Sample struct {
	ID          string            `yaml:"id"`
	Type        string            `yaml:"type"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Latitude    *float64          `yaml:"latitude"`
	Longitude   *float64          `yaml:"longitude"`
	Magnitude   *float64          `yaml:"magnitude"`
	VEI         *int              `yaml:"vei"`
	Intensity   string            `yaml:"intensity"`
	Timestamp   string            `yaml:"timestamp"`
	Source      string            `yaml:"source"`
	Status      string            `yaml:"status"`
	Details     map[string]string `yaml:"details"`
}

// Headline is a news item shown next to the map.
type Headline struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Source      string    `yaml:"source" json:"source"`
	Timestamp   string    `yaml:"timestamp" json:"-"`
	Category    string    `yaml:"category" json:"category"`
	PublishedAt time.Time `yaml:"-" json:"published_at"`
}

// Explanation is a short science primer for one hazard family.
type Explanation struct {
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
}

// Document is the parsed reference document.
type Document struct {
	Earthquakes  []Sample               `yaml:"earthquakes"`
	Volcanoes    []Sample               `yaml:"volcanoes"`
	Weather      []Sample               `yaml:"weather"`
	Headlines    []Headline             `yaml:"news_headlines"`
	Explanations map[string]Explanation `yaml:"scientific_explanations"`

	events []domain.Event
	newest time.Time
}

// Load parses the embedded document.
func Load() (*Document, error) {
	return Parse(samplesYAML)
}

// Parse decodes and validates a reference document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}

	for _, group := range [][]Sample{doc.Earthquakes, doc.Volcanoes, doc.Weather} {
		for _, s := range group {
			e, err := s.Event()
			if err != nil {
				return nil, err
			}
			if e.OccurredAt.After(doc.newest) {
				doc.newest = e.OccurredAt
			}
			doc.events = append(doc.events, e)
		}
	}

	for i := range doc.Headlines {
		t, err := time.Parse(time.RFC3339, doc.Headlines[i].Timestamp)
		if err != nil {
			return nil, fmt.Errorf("headline %s: invalid timestamp %q", doc.Headlines[i].ID, doc.Headlines[i].Timestamp)
		}
		doc.Headlines[i].PublishedAt = t.UTC()
	}
	return &doc, nil
}

// Event converts the sample into the normalized event shape.
func (s Sample) Event() (domain.Event, error) {
	t, err := time.Parse(time.RFC3339, s.Timestamp)
	if err != nil {
		return domain.Event{}, fmt.Errorf("sample %s: invalid timestamp %q", s.ID, s.Timestamp)
	}

	e := domain.Event{
		ID:          s.ID,
		Kind:        domain.Kind(s.Type),
		Title:       s.Title,
		Description: s.Description,
		Magnitude:   s.Magnitude,
		VEI:         s.VEI,
		Severity:    s.Intensity,
		OccurredAt:  t.UTC(),
		Source:      s.Source,
		Status:      s.Status,
		Details:     s.Details,
	}
	if s.Latitude != nil && s.Longitude != nil {
		e.Geo = &domain.Geo{Lat: *s.Latitude, Lon: *s.Longitude}
	}
	return e, nil
}

// Events returns the sample events with their original timestamps.
func (d *Document) Events() []domain.Event {
	return append([]domain.Event(nil), d.events...)
}

// EventsAt returns the sample events shifted so the newest one occurred at
// now, preserving the spacing between them.
func (d *Document) EventsAt(now time.Time) []domain.Event {
	shift := now.Sub(d.newest)
	out := d.Events()
	for i := range out {
		out[i].OccurredAt = out[i].OccurredAt.Add(shift)
	}
	return out
}

// HeadlinesAt returns the headlines shifted by the same amount as EventsAt.
func (d *Document) HeadlinesAt(now time.Time) []Headline {
	shift := now.Sub(d.newest)
	out := append([]Headline(nil), d.Headlines...)
	for i := range out {
		out[i].PublishedAt = out[i].PublishedAt.Add(shift)
	}
	return out
}

// Source implements ingest.Source over the reference events.
type Source struct {
	doc *Document
}

// NewSource creates a source that always returns the rebased sample events.
func NewSource(doc *Document) *Source {
	return &Source{doc: doc}
}

func (s *Source) Name() string { return "static" }

func (s *Source) Fetch(_ context.Context) ([]domain.Event, error) {
	return s.doc.EventsAt(domain.Now()), nil
}
