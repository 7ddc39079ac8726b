package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazardwatch/internal/config"
	"github.com/couchcryptid/hazardwatch/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	ingestedAt := time.Date(2025, 8, 14, 18, 5, 0, 0, time.UTC)
	event := domain.Event{
		ID:         "eq_001",
		Kind:       domain.KindEarthquake,
		Title:      "M 6.1 - Northwestern Turkey",
		Geo:        &domain.Geo{Lat: 39.8, Lon: 27.9},
		Magnitude:  domain.Float(6.1),
		OccurredAt: time.Date(2025, 8, 10, 20, 53, 0, 0, time.UTC),
		Source:     "USGS",
	}

	msg, err := serializeToMessage(event, ingestedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("eq_001"), msg.Key)
	assert.Contains(t, string(msg.Value), `"kind":"earthquake"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte("earthquake"), msg.Headers[0].Value)
	assert.Equal(t, "ingested_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-08-14T18:05:00Z"), msg.Headers[1].Value)

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	require.NotNil(t, decoded.Geo)
	assert.InDelta(t, 39.8, decoded.Geo.Lat, 0.0001)
	require.NotNil(t, decoded.Magnitude)
	assert.InDelta(t, 6.1, *decoded.Magnitude, 0.0001)
}

func TestSerializeToMessage_NoCoordinates(t *testing.T) {
	msg, err := serializeToMessage(domain.Event{ID: "v-1", Kind: domain.KindVolcano}, time.Now())
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Value), `"geo"`)
}

func TestWriter_LoadBatch_Empty(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaTopic: "hazard-events"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.LoadBatch(context.Background(), nil))
}
