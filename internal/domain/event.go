package domain

import (
	"time"
)

// Kind is the hazard category of an event. Unrecognized kinds are accepted and
// carried through; presentation falls back to a default style for them.
type Kind string

const (
	KindEarthquake   Kind = "earthquake"
	KindVolcano      Kind = "volcano"
	KindHeatwave     Kind = "heatwave"
	KindCyclone      Kind = "cyclone"
	KindWildfire     Kind = "wildfire"
	KindFlood        Kind = "flood"
	KindUnclassified Kind = "unclassified"
)

// KnownKinds lists every kind an event can carry, in display order.
var KnownKinds = []Kind{
	KindEarthquake,
	KindVolcano,
	KindHeatwave,
	KindCyclone,
	KindWildfire,
	KindFlood,
	KindUnclassified,
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Event is the single normalized hazard record produced by every source.
type Event struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Geo is nil when the source carried no coordinates. A literal 0,0 is a
	// real location and stays valid.
	Geo *Geo `json:"geo,omitempty"`

	// Kind-specific intensity representation.
	Magnitude *float64 `json:"magnitude,omitempty"` // earthquake
	VEI       *int     `json:"vei,omitempty"`       // volcano
	Severity  string   `json:"severity,omitempty"`  // weather kinds: Low..Extreme

	OccurredAt time.Time `json:"occurred_at"`
	Source     string    `json:"source"`
	Status     string    `json:"status,omitempty"`

	// Details carries optional kind-specific fields (depth, alert_level,
	// casualties, ...) verbatim.
	Details map[string]string `json:"details,omitempty"`

	// Place is filled by geocoding enrichment when available.
	Place string `json:"place,omitempty"`
}

// HasCoordinates reports whether the event can be placed on a map.
func (e Event) HasCoordinates() bool {
	return e.Geo != nil
}

// Detail returns a kind-specific field or "" when absent.
func (e Event) Detail(key string) string {
	if e.Details == nil {
		return ""
	}
	return e.Details[key]
}

// Float returns a pointer to v, for populating optional magnitude fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for populating optional VEI fields.
func Int(v int) *int { return &v }
