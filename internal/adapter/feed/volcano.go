package feed

import (
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/gofeed"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

// Volcano report defaults. Weekly reports carry no alert level or explosivity
// index, so every item gets the same conservative classification.
const (
	VolcanoSource       = "Smithsonian GVP"
	VolcanoAlertLevel   = "ADVISORY"
	VolcanoReportStatus = "reported"
)

// NewVolcanoSource reads the weekly volcanic activity report feed.
func NewVolcanoSource(client *retryablehttp.Client, url string) *Source {
	return &Source{name: "volcano", url: url, client: client, parse: volcanoEvent}
}

// ParseVolcanoFeed parses a volcano report feed document.
func ParseVolcanoFeed(body []byte) ([]domain.Event, error) {
	return parseFeed(body, volcanoEvent)
}

func volcanoEvent(item *gofeed.Item) domain.Event {
	title := collapse(item.Title)
	place, _, _ := strings.Cut(title, " - ")

	details := map[string]string{"alert_level": VolcanoAlertLevel}
	if item.Link != "" {
		details["url"] = item.Link
	}

	return domain.Event{
		ID:          item.GUID,
		Kind:        domain.KindVolcano,
		Title:       title,
		Description: plainText(item.Description),
		Geo:         itemGeo(item),
		OccurredAt:  itemTime(item),
		Source:      VolcanoSource,
		Status:      VolcanoReportStatus,
		Details:     details,
		Place:       strings.TrimSpace(place),
	}
}
