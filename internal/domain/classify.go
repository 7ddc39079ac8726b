package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// hazardKeywords is checked in order; the first rule with a matching keyword
// decides the kind.
var hazardKeywords = []struct {
	kind     Kind
	keywords []string
}{
	{KindFlood, []string{"flood"}},
	{KindCyclone, []string{"cyclone", "storm", "hurricane", "typhoon"}},
	{KindWildfire, []string{"fire"}},
	{KindHeatwave, []string{"heat", "drought"}},
}

// ClassifyHazard picks a weather kind from free text by case-insensitive
// keyword matching. Text matching no rule is KindUnclassified.
func ClassifyHazard(title, description string) Kind {
	text := strings.ToLower(title + " " + description)
	for _, rule := range hazardKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.kind
			}
		}
	}
	return KindUnclassified
}

// GenerateID produces a deterministic ID from the event's key fields so that
// the same upstream item maps to the same ID across cycles.
func GenerateID(kind Kind, title string, geo *Geo, occurredAt time.Time) string {
	var lat, lon float64
	if geo != nil {
		lat, lon = geo.Lat, geo.Lon
	}
	input := fmt.Sprintf("%s|%s|%.4f|%.4f|%d", kind, title, lat, lon, occurredAt.Unix())
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if kind == "" {
		return short
	}
	return string(kind) + "-" + short
}
