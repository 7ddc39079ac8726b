package domain

import (
	"context"
	"log/slog"
)

// Values recorded in Details["geo_source"] by EnrichWithGeocoding.
const (
	GeoSourceReverse = "reverse"
	GeoSourceFailed  = "failed"
)

// EnrichWithGeocoding fills in the place name of an event that has coordinates
// but no place. It never sets coordinates: an event without them stays off the
// map. If geocoder is nil or the lookup fails the event is returned unchanged
// apart from the geo_source marker.
func EnrichWithGeocoding(ctx context.Context, event Event, geocoder Geocoder, logger *slog.Logger) Event {
	if geocoder == nil {
		return event
	}

	if !event.HasCoordinates() || event.Place != "" {
		return event
	}

	result, err := geocoder.ReverseGeocode(ctx, event.Geo.Lat, event.Geo.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"event_id", event.ID,
			"lat", event.Geo.Lat,
			"lon", event.Geo.Lon,
			"error", err,
		)
		return withDetail(event, "geo_source", GeoSourceFailed)
	}
	if result.FormattedAddress == "" {
		return event
	}
	event.Place = result.FormattedAddress
	return withDetail(event, "geo_source", GeoSourceReverse)
}

// withDetail sets a detail on a copy of the event's detail map so events
// shared with a previous snapshot are never mutated.
func withDetail(event Event, key, value string) Event {
	details := make(map[string]string, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	details[key] = value
	event.Details = details
	return event
}
