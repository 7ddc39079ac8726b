// Package fixtures renders events in the shapes the live upstream feeds use,
// so mocks and adapter tests can be generated from the embedded samples.
package fixtures

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

// File names written by WriteAll.
const (
	USGSFile    = "usgs_feed.geojson"
	VolcanoFile = "volcano_feed.xml"
	HazardFile  = "hazard_feed.xml"
)

const (
	nsGeo    = "http://www.w3.org/2003/01/geo/wgs84_pos#"
	nsGeoRSS = "http://www.georss.org/georss"
	nsGDACS  = "http://www.gdacs.org"
)

// severityAlert maps severity labels back onto GDACS alert colours.
var severityAlert = map[string]string{
	"low":      "Green",
	"moderate": "Green",
	"high":     "Orange",
	"severe":   "Orange",
	"extreme":  "Red",
}

// Written reports how many events went into each fixture.
type Written struct {
	Earthquakes int
	Volcanoes   int
	Hazards     int
}

// WriteAll splits events by kind and writes the three fixtures into dir.
func WriteAll(dir string, events []domain.Event) (Written, error) {
	var quakes, volcanoes, hazards []domain.Event
	for _, e := range events {
		switch e.Kind {
		case domain.KindEarthquake:
			quakes = append(quakes, e)
		case domain.KindVolcano:
			volcanoes = append(volcanoes, e)
		default:
			hazards = append(hazards, e)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Written{}, fmt.Errorf("create fixture dir: %w", err)
	}
	outputs := []struct {
		name   string
		render func([]domain.Event) ([]byte, error)
		events []domain.Event
	}{
		{USGSFile, USGSGeoJSON, quakes},
		{VolcanoFile, VolcanoRSS, volcanoes},
		{HazardFile, HazardRSS, hazards},
	}
	for _, o := range outputs {
		data, err := o.render(o.events)
		if err != nil {
			return Written{}, fmt.Errorf("render %s: %w", o.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, o.name), data, 0o644); err != nil {
			return Written{}, fmt.Errorf("write %s: %w", o.name, err)
		}
	}
	return Written{Earthquakes: len(quakes), Volcanoes: len(volcanoes), Hazards: len(hazards)}, nil
}

type featureCollection struct {
	Type     string    `json:"type"`
	Metadata metadata  `json:"metadata"`
	Features []feature `json:"features"`
}

type metadata struct {
	Generated int64  `json:"generated"`
	Title     string `json:"title"`
	Count     int    `json:"count"`
}

type feature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Properties featureProperties `json:"properties"`
	Geometry   *geometry         `json:"geometry"`
}

type featureProperties struct {
	Mag     *float64 `json:"mag"`
	Place   string   `json:"place"`
	Time    int64    `json:"time"`
	Status  string   `json:"status,omitempty"`
	Tsunami int      `json:"tsunami"`
	Alert   *string  `json:"alert"`
	URL     string   `json:"url,omitempty"`
	Title   string   `json:"title"`
	Type    string   `json:"type"`
}

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// USGSGeoJSON renders earthquake events as an FDSN event query response.
func USGSGeoJSON(events []domain.Event) ([]byte, error) {
	fc := featureCollection{
		Type: "FeatureCollection",
		Metadata: metadata{
			Generated: domain.Now().UnixMilli(),
			Title:     "USGS Earthquakes",
			Count:     len(events),
		},
		Features: make([]feature, 0, len(events)),
	}
	for _, e := range events {
		f := feature{
			Type: "Feature",
			ID:   e.ID,
			Properties: featureProperties{
				Mag:    e.Magnitude,
				Place:  placeOf(e),
				Time:   e.OccurredAt.UnixMilli(),
				Status: e.Status,
				URL:    e.Detail("url"),
				Title:  e.Title,
				Type:   "earthquake",
			},
		}
		if alert := e.Detail("alert_level"); alert != "" {
			f.Properties.Alert = &alert
		}
		if e.Detail("tsunami") != "" {
			f.Properties.Tsunami = 1
		}
		if e.Geo != nil {
			coords := []float64{e.Geo.Lon, e.Geo.Lat}
			if depth, err := strconv.ParseFloat(e.Detail("depth"), 64); err == nil {
				coords = append(coords, depth)
			}
			f.Geometry = &geometry{Type: "Point", Coordinates: coords}
		}
		fc.Features = append(fc.Features, f)
	}
	return json.MarshalIndent(fc, "", "  ")
}

type rss struct {
	XMLName  xml.Name `xml:"rss"`
	Version  string   `xml:"version,attr"`
	GeoNS    string   `xml:"xmlns:geo,attr,omitempty"`
	GeoRSSNS string   `xml:"xmlns:georss,attr,omitempty"`
	GDACSNS  string   `xml:"xmlns:gdacs,attr,omitempty"`
	Channel  channel  `xml:"channel"`
}

type channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Items       []item `xml:"item"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link,omitempty"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        guid   `xml:"guid"`

	Lat        string `xml:"geo:lat,omitempty"`
	Long       string `xml:"geo:long,omitempty"`
	Point      string `xml:"georss:point,omitempty"`
	AlertLevel string `xml:"gdacs:alertlevel,omitempty"`
	IsCurrent  string `xml:"gdacs:iscurrent,omitempty"`
	Country    string `xml:"gdacs:country,omitempty"`
	Population string `xml:"gdacs:population,omitempty"`
}

type guid struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// VolcanoRSS renders volcano events as a weekly report feed with geo:lat and
// geo:long coordinates.
func VolcanoRSS(events []domain.Event) ([]byte, error) {
	doc := rss{
		Version: "2.0",
		GeoNS:   nsGeo,
		Channel: channel{
			Title:       "Weekly Volcanic Activity Report",
			Link:        "https://volcano.si.edu/reports_weekly.cfm",
			Description: "Smithsonian / USGS Weekly Volcanic Activity Report",
		},
	}
	for _, e := range events {
		it := baseItem(e)
		if e.Geo != nil {
			it.Lat = formatCoord(e.Geo.Lat)
			it.Long = formatCoord(e.Geo.Lon)
		}
		doc.Channel.Items = append(doc.Channel.Items, it)
	}
	return marshalRSS(doc)
}

// HazardRSS renders weather events as a multi-hazard alert feed with
// georss:point coordinates and gdacs alert extensions.
func HazardRSS(events []domain.Event) ([]byte, error) {
	doc := rss{
		Version:  "2.0",
		GeoRSSNS: nsGeoRSS,
		GDACSNS:  nsGDACS,
		Channel: channel{
			Title:       "GDACS RSS information",
			Link:        "https://www.gdacs.org/",
			Description: "Near real-time alerts about natural disasters around the world",
		},
	}
	for _, e := range events {
		it := baseItem(e)
		if e.Geo != nil {
			it.Point = formatCoord(e.Geo.Lat) + " " + formatCoord(e.Geo.Lon)
		}
		it.AlertLevel = severityAlert[strings.ToLower(e.Severity)]
		switch e.Status {
		case "", "past", "ended":
			it.IsCurrent = "false"
		default:
			it.IsCurrent = "true"
		}
		it.Country = e.Detail("affected_area")
		it.Population = e.Detail("population")
		doc.Channel.Items = append(doc.Channel.Items, it)
	}
	return marshalRSS(doc)
}

func baseItem(e domain.Event) item {
	return item{
		Title:       e.Title,
		Link:        e.Detail("url"),
		Description: e.Description,
		PubDate:     e.OccurredAt.UTC().Format(time.RFC1123Z),
		GUID:        guid{IsPermaLink: "false", Value: e.ID},
	}
}

func marshalRSS(doc rss) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func placeOf(e domain.Event) string {
	if e.Place != "" {
		return e.Place
	}
	if _, place, ok := strings.Cut(e.Title, " - "); ok {
		return place
	}
	return e.Description
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
