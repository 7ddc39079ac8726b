package feed

import (
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/gofeed"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

// HazardSource names the multi-hazard alert feed.
const HazardSource = "GDACS"

// gdacsSeverity maps GDACS alert colours onto the severity labels.
var gdacsSeverity = map[string]string{
	"green":  "Low",
	"orange": "High",
	"red":    "Extreme",
}

// NewHazardSource reads the multi-hazard alert feed.
func NewHazardSource(client *retryablehttp.Client, url string) *Source {
	return &Source{name: "hazards", url: url, client: client, parse: hazardEvent}
}

// ParseHazardFeed parses a multi-hazard alert feed document.
func ParseHazardFeed(body []byte) ([]domain.Event, error) {
	return parseFeed(body, hazardEvent)
}

func hazardEvent(item *gofeed.Item) domain.Event {
	title := collapse(item.Title)
	description := plainText(item.Description)

	e := domain.Event{
		ID:          item.GUID,
		Kind:        domain.ClassifyHazard(title, description),
		Title:       title,
		Description: description,
		Geo:         itemGeo(item),
		OccurredAt:  itemTime(item),
		Source:      HazardSource,
		Details:     map[string]string{},
	}

	if level := extValue(item.Extensions, "gdacs", "alertlevel"); level != "" {
		e.Severity = gdacsSeverity[strings.ToLower(level)]
		e.Details["alert_level"] = level
	}
	switch strings.ToLower(extValue(item.Extensions, "gdacs", "iscurrent")) {
	case "true":
		e.Status = "active"
	case "false":
		e.Status = "past"
	}
	if country := extValue(item.Extensions, "gdacs", "country"); country != "" {
		e.Details["affected_area"] = country
	}
	if pop := extValue(item.Extensions, "gdacs", "population"); pop != "" {
		e.Details["population"] = pop
	}
	if item.Link != "" {
		e.Details["url"] = item.Link
	}
	return e
}
