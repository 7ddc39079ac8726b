package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazardwatch/internal/domain"
)

func openTestArchive(t *testing.T, now *time.Time) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	a.now = func() time.Time { return *now }
	return a
}

var base = time.Date(2025, 8, 14, 12, 0, 0, 0, time.UTC)

func event(id string, kind domain.Kind, age time.Duration) domain.Event {
	return domain.Event{
		ID:         id,
		Kind:       kind,
		Title:      "event " + id,
		Geo:        &domain.Geo{Lat: 10, Lon: 20},
		OccurredAt: base.Add(-age),
		Source:     "test",
	}
}

func TestArchive_LoadBatchAndSince(t *testing.T) {
	now := base
	a := openTestArchive(t, &now)
	ctx := context.Background()

	eq := event("eq-1", domain.KindEarthquake, 2*time.Hour)
	eq.Magnitude = domain.Float(5.4)
	eq.Details = map[string]string{"depth": "12 km"}
	require.NoError(t, a.LoadBatch(ctx, []domain.Event{
		eq,
		event("fl-1", domain.KindFlood, time.Hour),
		event("old", domain.KindVolcano, 72*time.Hour),
	}))

	got, err := a.Since(ctx, base.Add(-24*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fl-1", got[0].ID, "newest first")
	assert.Equal(t, "eq-1", got[1].ID)
	require.NotNil(t, got[1].Magnitude)
	assert.InDelta(t, 5.4, *got[1].Magnitude, 0.0001)
	assert.Equal(t, "12 km", got[1].Detail("depth"))
	assert.Equal(t, base, got[1].FirstSeenAt)
	assert.True(t, got[1].OccurredAt.Equal(base.Add(-2*time.Hour)))
}

func TestArchive_UpsertKeepsFirstSeen(t *testing.T) {
	now := base
	a := openTestArchive(t, &now)
	ctx := context.Background()

	e := event("eq-1", domain.KindEarthquake, time.Hour)
	require.NoError(t, a.LoadBatch(ctx, []domain.Event{e}))

	now = base.Add(5 * time.Minute)
	e.Title = "updated title"
	require.NoError(t, a.LoadBatch(ctx, []domain.Event{e}))

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := a.Since(ctx, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "updated title", got[0].Title)
	assert.Equal(t, base, got[0].FirstSeenAt)
	assert.Equal(t, base.Add(5*time.Minute), got[0].LastSeenAt)
}

func TestArchive_SinceLimit(t *testing.T) {
	now := base
	a := openTestArchive(t, &now)
	ctx := context.Background()

	require.NoError(t, a.LoadBatch(ctx, []domain.Event{
		event("a", domain.KindFlood, 3*time.Hour),
		event("b", domain.KindFlood, 2*time.Hour),
		event("c", domain.KindFlood, time.Hour),
	}))

	got, err := a.Since(ctx, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
}

func TestArchive_EmptyBatchAndResult(t *testing.T) {
	now := base
	a := openTestArchive(t, &now)
	ctx := context.Background()

	require.NoError(t, a.LoadBatch(ctx, nil))
	got, err := a.Since(ctx, time.Time{}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestArchive_NilGeoRoundTrip(t *testing.T) {
	now := base
	a := openTestArchive(t, &now)
	ctx := context.Background()

	e := event("v-1", domain.KindVolcano, time.Hour)
	e.Geo = nil
	require.NoError(t, a.LoadBatch(ctx, []domain.Event{e}))

	got, err := a.Since(ctx, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Geo)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)
}

func TestArchive_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.LoadBatch(context.Background(), []domain.Event{event("x", domain.KindFlood, time.Hour)}))
	require.NoError(t, a.Close())

	b, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	n, err := b.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
