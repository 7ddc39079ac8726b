package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazardwatch/internal/adapter/fetch"
	"github.com/couchcryptid/hazardwatch/internal/domain"
)

const volcanoRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
     xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#"
     xmlns:georss="http://www.georss.org/georss">
  <channel>
    <title>Weekly Volcanic Activity Report</title>
    <link>https://volcano.si.edu/</link>
    <description>Weekly reports</description>
    <item>
      <title>Etna (Italy) - Report for 6 August-12 August 2025</title>
      <link>https://volcano.si.edu/volcano.cfm?vn=211060</link>
      <guid>gvp-211060-20250812</guid>
      <pubDate>Wed, 13 Aug 2025 19:21:53 GMT</pubDate>
      <description>&lt;p&gt;Ash plumes rose
        up to &lt;b&gt;5 km&lt;/b&gt; a.s.l.&lt;/p&gt;</description>
      <georss:point>37.734 15.004</georss:point>
    </item>
    <item>
      <title>Great Sitkin (United States) - Report for 6 August-12 August 2025</title>
      <guid>gvp-311120-20250812</guid>
      <pubDate>Wed, 13 Aug 2025 19:21:53 GMT</pubDate>
      <description>Lava continues to erupt in the summit crater.</description>
      <geo:lat>52.076</geo:lat>
      <geo:long>-176.11</geo:long>
    </item>
    <item>
      <title>Spurr (United States) - Report for 6 August-12 August 2025</title>
      <pubDate>Wed, 13 Aug 2025 19:21:53 GMT</pubDate>
      <description>Low-level unrest.</description>
      <geo:Point>
        <geo:lat>61.299</geo:lat>
        <geo:long>-152.254</geo:long>
      </geo:Point>
    </item>
    <item>
      <title>Unnamed Seamount (Pacific Ocean) - Report for 6 August-12 August 2025</title>
      <pubDate>Wed, 13 Aug 2025 19:21:53 GMT</pubDate>
      <description>Discoloured water observed.</description>
    </item>
  </channel>
</rss>`

const hazardRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
     xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#"
     xmlns:gdacs="http://www.gdacs.org">
  <channel>
    <title>GDACS RSS information</title>
    <link>https://www.gdacs.org/</link>
    <description>Near real-time alerts</description>
    <item>
      <title>Red flood alert in Nigeria</title>
      <description>Severe flooding affecting multiple states.</description>
      <link>https://www.gdacs.org/report.aspx?eventtype=FL&amp;eventid=1102983</link>
      <guid>FL1102983</guid>
      <pubDate>Wed, 13 Aug 2025 10:00:00 GMT</pubDate>
      <geo:Point><geo:lat>9.0</geo:lat><geo:long>7.0</geo:long></geo:Point>
      <gdacs:alertlevel>Red</gdacs:alertlevel>
      <gdacs:iscurrent>true</gdacs:iscurrent>
      <gdacs:country>Nigeria</gdacs:country>
    </item>
    <item>
      <title>Orange alert for tropical cyclone ERIN-25</title>
      <description>Tropical storm forming in the Atlantic.</description>
      <guid>TC1001180</guid>
      <pubDate>Thu, 14 Aug 2025 18:00:00 GMT</pubDate>
      <geo:Point><geo:lat>15.2</geo:lat><geo:long>-45.8</geo:long></geo:Point>
      <gdacs:alertlevel>Orange</gdacs:alertlevel>
      <gdacs:iscurrent>false</gdacs:iscurrent>
    </item>
    <item>
      <title>Green forest fire alert in Canada</title>
      <description>Wildfire burning across British Columbia.</description>
      <guid>WF1024611</guid>
      <pubDate>Thu, 14 Aug 2025 14:00:00 GMT</pubDate>
      <geo:Point><geo:lat>54.5</geo:lat><geo:long>-125.2</geo:long></geo:Point>
      <gdacs:alertlevel>Green</gdacs:alertlevel>
    </item>
    <item>
      <title>Drought in Southern Europe</title>
      <description>Prolonged dry conditions.</description>
      <guid>DR1016917</guid>
      <pubDate>Thu, 14 Aug 2025 06:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Green earthquake alert in Vanuatu</title>
      <description>Magnitude 5.1M, depth 10km.</description>
      <guid>EQ1493722</guid>
      <pubDate>Thu, 14 Aug 2025 03:00:00 GMT</pubDate>
      <geo:Point><geo:lat>-17.7</geo:lat><geo:long>168.3</geo:long></geo:Point>
      <gdacs:alertlevel>Green</gdacs:alertlevel>
    </item>
  </channel>
</rss>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fetch.UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseVolcanoFeed(t *testing.T) {
	events, err := ParseVolcanoFeed([]byte(volcanoRSS))
	require.NoError(t, err)
	require.Len(t, events, 4)

	etna := events[0]
	assert.Equal(t, "gvp-211060-20250812", etna.ID)
	assert.Equal(t, domain.KindVolcano, etna.Kind)
	assert.Equal(t, "Etna (Italy)", etna.Place)
	assert.Equal(t, "Ash plumes rose up to 5 km a.s.l.", etna.Description)
	require.True(t, etna.HasCoordinates())
	assert.InDelta(t, 37.734, etna.Geo.Lat, 0.0001)
	assert.InDelta(t, 15.004, etna.Geo.Lon, 0.0001)
	assert.Equal(t, VolcanoAlertLevel, etna.Detail("alert_level"))
	assert.Equal(t, VolcanoReportStatus, etna.Status)
	assert.Nil(t, etna.VEI)
	assert.Equal(t, VolcanoSource, etna.Source)
	assert.Equal(t, time.Date(2025, time.August, 13, 19, 21, 53, 0, time.UTC), etna.OccurredAt)

	sitkin := events[1]
	require.True(t, sitkin.HasCoordinates())
	assert.InDelta(t, 52.076, sitkin.Geo.Lat, 0.0001)
	assert.InDelta(t, -176.11, sitkin.Geo.Lon, 0.0001)

	spurr := events[2]
	require.True(t, spurr.HasCoordinates(), "geo:Point wrapper")
	assert.InDelta(t, 61.299, spurr.Geo.Lat, 0.0001)
	assert.Empty(t, spurr.ID, "missing guid is left for the ingester")

	seamount := events[3]
	assert.False(t, seamount.HasCoordinates())
	assert.Equal(t, "Unnamed Seamount (Pacific Ocean)", seamount.Place)
}

func TestParseHazardFeed(t *testing.T) {
	events, err := ParseHazardFeed([]byte(hazardRSS))
	require.NoError(t, err)
	require.Len(t, events, 5)

	flood := events[0]
	assert.Equal(t, domain.KindFlood, flood.Kind)
	assert.Equal(t, "Extreme", flood.Severity)
	assert.Equal(t, "active", flood.Status)
	assert.Equal(t, "Nigeria", flood.Detail("affected_area"))
	assert.Equal(t, "Red", flood.Detail("alert_level"))
	assert.Contains(t, flood.Detail("url"), "eventid=1102983")
	require.True(t, flood.HasCoordinates())
	assert.InDelta(t, 9.0, flood.Geo.Lat, 0.0001)

	cyclone := events[1]
	assert.Equal(t, domain.KindCyclone, cyclone.Kind)
	assert.Equal(t, "High", cyclone.Severity)
	assert.Equal(t, "past", cyclone.Status)

	fire := events[2]
	assert.Equal(t, domain.KindWildfire, fire.Kind)
	assert.Equal(t, "Low", fire.Severity)
	assert.Empty(t, fire.Status)

	drought := events[3]
	assert.Equal(t, domain.KindHeatwave, drought.Kind)
	assert.Empty(t, drought.Severity)
	assert.False(t, drought.HasCoordinates())

	quake := events[4]
	assert.Equal(t, domain.KindUnclassified, quake.Kind)
	assert.Equal(t, HazardSource, quake.Source)
}

const undatedHazardRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:geo="http://www.w3.org/2003/01/geo/wgs84_pos#">
  <channel>
    <title>GDACS RSS information</title>
    <item>
      <title>Flood alert in Bangladesh</title>
      <description>River levels rising.</description>
      <geo:Point><geo:lat>23.7</geo:lat><geo:long>90.4</geo:long></geo:Point>
    </item>
  </channel>
</rss>`

func TestParseHazardFeed_UndatedItem(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.August, 14, 12, 0, 0, 0, time.UTC))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	first, err := ParseHazardFeed([]byte(undatedHazardRSS))
	require.NoError(t, err)
	require.Len(t, first, 1)
	clock.Advance(5 * time.Minute)
	second, err := ParseHazardFeed([]byte(undatedHazardRSS))
	require.NoError(t, err)
	require.Len(t, second, 1)

	flood := first[0]
	assert.Equal(t, domain.KindFlood, flood.Kind)
	assert.True(t, flood.OccurredAt.IsZero())
	assert.Equal(t, flood.OccurredAt, second[0].OccurredAt)
	assert.Equal(t,
		domain.GenerateID(flood.Kind, flood.Title, flood.Geo, flood.OccurredAt),
		domain.GenerateID(second[0].Kind, second[0].Title, second[0].Geo, second[0].OccurredAt),
	)

	hour := domain.FilterState{Kind: domain.KindAll, Window: domain.WindowHour}
	assert.Empty(t, domain.FilterNow(first, hour))
	all := domain.FilterState{Kind: domain.KindAll, Window: domain.WindowAll}
	assert.Len(t, domain.FilterNow(first, all), 1)
}

func TestParseFeed_Invalid(t *testing.T) {
	_, err := ParseHazardFeed([]byte("service temporarily unavailable"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse feed")
}

func TestSource_Fetch(t *testing.T) {
	client := fetch.NewClient(0, discardLogger())

	volcano := NewVolcanoSource(client, serveFeed(t, volcanoRSS).URL)
	assert.Equal(t, "volcano", volcano.Name())
	events, err := volcano.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 4)

	hazards := NewHazardSource(client, serveFeed(t, hazardRSS).URL)
	assert.Equal(t, "hazards", hazards.Name())
	events, err = hazards.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestSource_Fetch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHazardSource(fetch.NewClient(0, discardLogger()), srv.URL).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestGeoPair_RejectsOutOfRange(t *testing.T) {
	assert.Nil(t, geoPair("91", "0"))
	assert.Nil(t, geoPair("0", "181"))
	assert.Nil(t, geoPair("north", "0"))
	g := geoPair("0", "0")
	require.NotNil(t, g, "0,0 is a real location")
	assert.Zero(t, g.Lat)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Heavy rain and flooding", plainText("<div><p>Heavy rain</p> <p>and   flooding</p></div>"))
	assert.Equal(t, "plain text", plainText("  plain\n text "))
	assert.Equal(t, "Fish & chips", plainText("Fish &amp; chips"))
}
