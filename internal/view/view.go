// Package view derives the map and side-panel models the dashboard renders
// from normalized events. Nothing here mutates its input.
package view

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

const (
	// DefaultColor styles kinds without a dedicated color.
	DefaultColor = "#74b9ff"
	// DefaultIcon marks kinds without a dedicated icon.
	DefaultIcon = "⚠️"

	minRadius = 6
	maxRadius = 20

	// RecentCount is how many events the recent-events panel lists.
	RecentCount = 5

	timeLayout = "Jan 2, 15:04"
)

var colors = map[domain.Kind]string{
	domain.KindEarthquake: "#ff4757",
	domain.KindVolcano:    "#ff7675",
	domain.KindHeatwave:   "#a55eea",
	domain.KindCyclone:    "#26de81",
	domain.KindWildfire:   "#ffa502",
	domain.KindFlood:      "#2ed573",
}

var icons = map[domain.Kind]string{
	domain.KindEarthquake: "🔴",
	domain.KindVolcano:    "🟠",
	domain.KindHeatwave:   "🟣",
	domain.KindCyclone:    "🌪️",
	domain.KindWildfire:   "🔥",
	domain.KindFlood:      "🔵",
}

// Color returns the marker fill color for a kind.
func Color(k domain.Kind) string {
	if c, ok := colors[k]; ok {
		return c
	}
	return DefaultColor
}

// Icon returns the glyph shown next to an event of kind k.
func Icon(k domain.Kind) string {
	if i, ok := icons[k]; ok {
		return i
	}
	return DefaultIcon
}

// KindLabel is the display name of a kind, e.g. "Earthquake".
func KindLabel(k domain.Kind) string {
	if k == "" {
		k = domain.KindUnclassified
	}
	// Casers keep state and are not shared across goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(string(k), "_", " "))
}

// Radius scales a marker with the event's normalized intensity, clamped to
// [6, 20].
func Radius(e domain.Event) float64 {
	return math.Max(minRadius, math.Min(maxRadius, 2*domain.NormalizedIntensity(e)))
}

// Field is one labeled line of a popup.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Popup is the detail card attached to a marker.
type Popup struct {
	Title       string  `json:"title"`
	Icon        string  `json:"icon"`
	Time        string  `json:"time"`
	Details     []Field `json:"details"`
	Source      string  `json:"source"`
	Description string  `json:"description,omitempty"`
}

// Marker is a map circle for one event with coordinates.
type Marker struct {
	ID     string      `json:"id"`
	Kind   domain.Kind `json:"kind"`
	Lat    float64     `json:"lat"`
	Lon    float64     `json:"lon"`
	Color  string      `json:"color"`
	Radius float64     `json:"radius"`
	Label  string      `json:"label"`
	Popup  Popup       `json:"popup"`
}

// Markers builds one marker per event that has coordinates, in input order.
func Markers(events []domain.Event) []Marker {
	out := make([]Marker, 0, len(events))
	for _, e := range events {
		if !e.HasCoordinates() {
			continue
		}
		out = append(out, Marker{
			ID:     e.ID,
			Kind:   e.Kind,
			Lat:    e.Geo.Lat,
			Lon:    e.Geo.Lon,
			Color:  Color(e.Kind),
			Radius: Radius(e),
			Label:  KindLabel(e.Kind),
			Popup:  NewPopup(e),
		})
	}
	return out
}

// NewPopup builds the detail card for e with kind-specific fields.
func NewPopup(e domain.Event) Popup {
	return Popup{
		Title:       e.Title,
		Icon:        Icon(e.Kind),
		Time:        FormatTime(e.OccurredAt),
		Details:     popupFields(e),
		Source:      e.Source,
		Description: e.Description,
	}
}

func popupFields(e domain.Event) []Field {
	switch e.Kind {
	case domain.KindEarthquake:
		return []Field{
			{Label: "Magnitude", Value: formatFloat(e.Magnitude)},
			{Label: "Depth", Value: withUnit(e.Detail("depth"), "km")},
			{Label: "Casualties", Value: orUnknown(e.Detail("casualties"))},
		}
	case domain.KindVolcano:
		vei := "Unknown"
		if e.VEI != nil {
			vei = strconv.Itoa(*e.VEI)
		}
		return []Field{
			{Label: "Alert Level", Value: orUnknown(e.Detail("alert_level"))},
			{Label: "VEI", Value: vei},
			{Label: "Status", Value: orUnknown(e.Status)},
		}
	default:
		fields := []Field{
			{Label: "Intensity", Value: orUnknown(e.Severity)},
			{Label: "Status", Value: orUnknown(e.Status)},
		}
		if c := e.Detail("casualties"); c != "" {
			fields = append(fields, Field{Label: "Casualties", Value: c})
		}
		return fields
	}
}

// FormatTime renders a timestamp the way the panels show it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// RecentItem is one line of the recent-events panel.
type RecentItem struct {
	ID    string      `json:"id"`
	Kind  domain.Kind `json:"kind"`
	Icon  string      `json:"icon"`
	Title string      `json:"title"`
	Time  string      `json:"time"`
}

// Recent returns the n most recent events, newest first. It sorts a copy.
func Recent(events []domain.Event, n int) []domain.Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b domain.Event) int {
		return cmp.Compare(b.OccurredAt.UnixNano(), a.OccurredAt.UnixNano())
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// RecentItems formats the result of Recent for the side panel.
func RecentItems(events []domain.Event, n int) []RecentItem {
	recent := Recent(events, n)
	out := make([]RecentItem, len(recent))
	for i, e := range recent {
		out[i] = RecentItem{
			ID:    e.ID,
			Kind:  e.Kind,
			Icon:  Icon(e.Kind),
			Title: e.Title,
			Time:  FormatTime(e.OccurredAt),
		}
	}
	return out
}

// Summary is the status-bar model.
type Summary struct {
	Total       int                 `json:"total"`
	Visible     int                 `json:"visible"`
	ByKind      map[domain.Kind]int `json:"by_kind"`
	LastUpdated time.Time           `json:"last_updated"`
	Fallback    bool                `json:"fallback"`
}

// NewSummary counts all events per kind alongside the visible subset size.
func NewSummary(all, visible []domain.Event, lastUpdated time.Time, fallback bool) Summary {
	byKind := make(map[domain.Kind]int, len(domain.KnownKinds))
	for _, k := range domain.KnownKinds {
		byKind[k] = 0
	}
	for _, e := range all {
		byKind[e.Kind]++
	}
	return Summary{
		Total:       len(all),
		Visible:     len(visible),
		ByKind:      byKind,
		LastUpdated: lastUpdated,
		Fallback:    fallback,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return "Unknown"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func withUnit(v, unit string) string {
	if v == "" {
		return "Unknown"
	}
	return v + " " + unit
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}
