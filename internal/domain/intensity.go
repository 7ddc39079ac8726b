package domain

import (
	"math"
	"strings"
)

// DefaultSeverityScore is the score for weather events whose label is missing
// or unrecognized. Mid-scale keeps them from being hidden by low thresholds.
const DefaultSeverityScore = 5.0

// severityScores maps the categorical weather labels onto the shared numeric
// scale used for intensity filtering.
var severityScores = map[string]float64{
	"low":      1,
	"moderate": 3,
	"high":     5,
	"severe":   7,
	"extreme":  9,
}

// SeverityLabels lists the recognized categorical labels, lowest first.
var SeverityLabels = []string{"Low", "Moderate", "High", "Severe", "Extreme"}

// NormalizedIntensity maps the kind-specific intensity of an event onto one
// comparable scale. The result is always finite and non-negative.
//
//   - earthquake: magnitude, 0 when absent
//   - volcano: volcanic explosivity index, 0 when absent
//   - anything else: the severity label score, DefaultSeverityScore when the
//     label is absent or unknown
func NormalizedIntensity(e Event) float64 {
	switch e.Kind {
	case KindEarthquake:
		if e.Magnitude == nil {
			return 0
		}
		return sanitize(*e.Magnitude)
	case KindVolcano:
		if e.VEI == nil {
			return 0
		}
		return sanitize(float64(*e.VEI))
	default:
		return SeverityScore(e.Severity)
	}
}

// SeverityScore looks up a categorical label case-insensitively.
func SeverityScore(label string) float64 {
	if score, ok := severityScores[strings.ToLower(strings.TrimSpace(label))]; ok {
		return score
	}
	return DefaultSeverityScore
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
