//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/hazardwatch/internal/adapter/kafka"
	"github.com/couchcryptid/hazardwatch/internal/adapter/static"
	"github.com/couchcryptid/hazardwatch/internal/config"
	"github.com/couchcryptid/hazardwatch/internal/domain"
	"github.com/couchcryptid/hazardwatch/internal/ingest"
	"github.com/couchcryptid/hazardwatch/internal/observability"
)

const testTopic = "test-hazard-events"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the lifetime of the test and
// returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka: %v", err)
		}
	})
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type publishedEvent struct {
	Event   domain.Event
	Key     string
	Headers map[string]string
}

// readPublished consumes n messages from the topic.
func readPublished(ctx context.Context, t *testing.T, broker string, n int) []publishedEvent {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]publishedEvent, 0, n)
	for len(out) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var event domain.Event
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		out = append(out, publishedEvent{Event: event, Key: string(msg.Key), Headers: headers})
	}
	return out
}

// TestKafkaWriter verifies a batch written by the adapter can be consumed
// back with its key and headers intact.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	event := domain.Event{
		ID:         "us7000test",
		Kind:       domain.KindEarthquake,
		Title:      "M 6.1 - 10 km SW of Sindirgi, Turkey",
		Geo:        &domain.Geo{Lat: 39.8, Lon: 27.9},
		Magnitude:  domain.Float(6.1),
		OccurredAt: time.Date(2025, 8, 10, 16, 53, 0, 0, time.UTC),
		Source:     "USGS",
		Details:    map[string]string{"depth": "10 km"},
	}
	require.NoError(t, writer.LoadBatch(ctx, []domain.Event{event}))

	got := readPublished(ctx, t, broker, 1)[0]
	assert.Equal(t, "us7000test", got.Key)
	assert.Equal(t, "earthquake", got.Headers["kind"])
	_, err := time.Parse(time.RFC3339, got.Headers["ingested_at"])
	require.NoError(t, err, "ingested_at should be valid RFC3339")

	assert.Equal(t, event.Title, got.Event.Title)
	assert.Equal(t, "10 km", got.Event.Detail("depth"))
	require.NotNil(t, got.Event.Magnitude)
	assert.InDelta(t, 6.1, *got.Event.Magnitude, 0.0001)
}

// TestRefresherPublishesToKafka wires the static sample source through a
// refresher cycle with the kafka writer as its only sink.
func TestRefresherPublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	doc, err := static.Load()
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	ingester := ingest.NewIngester(
		[]ingest.Source{static.NewSource(doc)}, nil, nil,
		10*time.Second, discardLogger(), metrics,
	)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	store := ingest.NewStore()
	refresher := ingest.NewRefresher(ingester, store,
		[]ingest.Sink{{Name: "kafka", Loader: writer}},
		time.Minute, discardLogger(), metrics)

	snap, ok := refresher.RefreshNow(ctx)
	require.True(t, ok)
	require.NotEmpty(t, snap.Events)

	published := readPublished(ctx, t, broker, len(snap.Events))
	byID := make(map[string]publishedEvent, len(published))
	for _, p := range published {
		byID[p.Key] = p
	}
	for _, e := range snap.Events {
		p, found := byID[e.ID]
		require.True(t, found, "event %s should be published", e.ID)
		assert.Equal(t, string(e.Kind), p.Headers["kind"])
		assert.Equal(t, e.Title, p.Event.Title)
	}
}
