// Package feed turns RSS hazard feeds into events. Item coordinates are read
// from the W3C geo or GeoRSS extensions; items without them keep a nil Geo.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/couchcryptid/hazardwatch/internal/adapter/fetch"
	"github.com/couchcryptid/hazardwatch/internal/domain"
)

const acceptRSS = "application/rss+xml, application/xml;q=0.9, */*;q=0.5"

// itemParser maps one feed item onto an event.
type itemParser func(item *gofeed.Item) domain.Event

// Source implements ingest.Source over one RSS feed.
type Source struct {
	name   string
	url    string
	client *retryablehttp.Client
	parse  itemParser
}

func (s *Source) Name() string { return s.name }

// Fetch downloads and parses the feed.
func (s *Source) Fetch(ctx context.Context) ([]domain.Event, error) {
	body, err := fetch.Get(ctx, s.client, s.url, acceptRSS)
	if err != nil {
		return nil, err
	}
	return parseFeed(body, s.parse)
}

func parseFeed(body []byte, parse itemParser) ([]domain.Event, error) {
	f, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	events := make([]domain.Event, 0, len(f.Items))
	for _, item := range f.Items {
		events = append(events, parse(item))
	}
	return events, nil
}

// itemGeo reads coordinates from geo:lat/geo:long, a geo:Point wrapper, or
// georss:point ("lat lon"), in that order.
func itemGeo(item *gofeed.Item) *domain.Geo {
	if g := geoPair(extValue(item.Extensions, "geo", "lat"), extValue(item.Extensions, "geo", "long")); g != nil {
		return g
	}
	if points := item.Extensions["geo"]["Point"]; len(points) > 0 {
		p := points[0].Children
		if g := geoPair(firstValue(p["lat"]), firstValue(p["long"])); g != nil {
			return g
		}
	}
	if fields := strings.Fields(extValue(item.Extensions, "georss", "point")); len(fields) == 2 {
		return geoPair(fields[0], fields[1])
	}
	return nil
}

func geoPair(latStr, lonStr string) *domain.Geo {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil
	}
	return &domain.Geo{Lat: lat, Lon: lon}
}

func extValue(e ext.Extensions, prefix, name string) string {
	if e == nil {
		return ""
	}
	return firstValue(e[prefix][name])
}

func firstValue(values []ext.Extension) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

// itemTime prefers the publication date, then the update date. An undated
// item gets the zero time, which keeps it out of every bounded window and
// keeps its generated ID stable across cycles.
func itemTime(item *gofeed.Item) time.Time {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.UTC()
	default:
		return time.Time{}
	}
}

// plainText flattens an HTML fragment to single-spaced text.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(s)
	}
	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
