package services

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obs-text-slides/internal/db"
	"obs-text-slides/internal/models"
)

func newTestKV(t *testing.T) *KVStore {
	t.Helper()
	database, err := db.InitDatabase(filepath.Join(t.TempDir(), "slides.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewKVStore(database, "obsTextSlides.state", nil)
}

func TestKVStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "k", "v1"))
	require.NoError(t, kv.Set(ctx, "k", "v2"))
	value, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)

	require.NoError(t, kv.Delete(ctx, "k"))
	assert.ErrorIs(t, kv.Delete(ctx, "k"), ErrNotFound)
}

func TestKVStoreLoadStateDefaults(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	state := kv.LoadState(ctx)
	assert.Len(t, state.Slides, 2)
	assert.Equal(t, "Welcome", state.Slides[0].Title)

	require.NoError(t, kv.Set(ctx, "obsTextSlides.state", `{"slides": "nope"}`))
	assert.Len(t, kv.LoadState(ctx).Slides, 2)

	require.NoError(t, kv.Set(ctx, "obsTextSlides.state", `not json`))
	assert.Len(t, kv.LoadState(ctx).Slides, 2)
}

func TestKVStoreRestoresCommittedState(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	store := NewPlaylistStore(models.DefaultState())
	store.AddObserver(kv)
	_, err := store.ClearAllSlides(ctx)
	require.NoError(t, err)

	restored := kv.LoadState(ctx)
	assert.Empty(t, restored.Slides, "a cleared playlist stays cleared")
	assert.Equal(t, "clear-all", restored.Metadata.Notes)

	_, err = store.AddSlides(ctx, "One\n---\nTwo")
	require.NoError(t, err)
	_, err = store.SetActiveSlide(ctx, 1, "test")
	require.NoError(t, err)

	restored = kv.LoadState(ctx)
	assert.Equal(t, store.Snapshot(), restored)
}

func TestKVStoreMergesSettingsOverDefaults(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	require.NoError(t, kv.Set(ctx, "obsTextSlides.state",
		`{"slides":[{"id":"x","title":"X","body":"X","raw":"X"}],"activeSlideIndex":9,"settings":{"defaultFontSizePx":80}}`))

	state := kv.LoadState(ctx)
	assert.Equal(t, 80.0, state.Settings.DefaultFontSizePx)
	assert.Equal(t, models.DefaultSettings().DefaultFontFamily, state.Settings.DefaultFontFamily)
	assert.Equal(t, models.TransitionCrossfade, state.Settings.TransitionType)
	assert.Zero(t, state.ActiveSlideIndex)
	assert.Equal(t, models.ModeManual, state.Playlist.Mode)
}

func TestKVStoreKeepsSessionWithWrongShapedField(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	require.NoError(t, kv.Set(ctx, "obsTextSlides.state",
		`{"slides":[{"id":"x","raw":"Mine","durationMs":1500.5,"fontSizePx":"48"}],"settings":"oops"}`))

	state := kv.LoadState(ctx)
	require.Len(t, state.Slides, 1)
	assert.Equal(t, "Mine", state.Slides[0].Raw)
	assert.Equal(t, 1500, state.Slides[0].DurationMs)
	assert.Nil(t, state.Slides[0].FontSizePx)
	assert.Equal(t, models.DefaultSettings(), state.Settings)
}

func TestKVStoreLogsThroughInjectedLogger(t *testing.T) {
	ctx := context.Background()
	database, err := db.InitDatabase(filepath.Join(t.TempDir(), "slides.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	var buf bytes.Buffer
	kv := NewKVStore(database, "obsTextSlides.state", slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, kv.Set(ctx, "obsTextSlides.state", `not json`))

	kv.LoadState(ctx)
	assert.Contains(t, buf.String(), "saved state is unusable")
}

func TestSnapshotFilePublishesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "slides.state.json")
	file, err := NewSnapshotFile(path)
	require.NoError(t, err)

	_, err = file.Read()
	assert.Error(t, err)

	state := models.DefaultState()
	state.Slides = nil
	require.NoError(t, file.StateCommitted(context.Background(), state))

	data, err := file.Read()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []any{}, doc["slides"])
	assert.Equal(t, state.UpdatedAt, doc["updatedAt"])
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the published document remains")
}
