package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obs-text-slides/internal/models"
)

type recordingObserver struct {
	states []models.PlaylistState
	err    error
}

func (r *recordingObserver) StateCommitted(_ context.Context, state models.PlaylistState) error {
	r.states = append(r.states, state)
	return r.err
}

func (r *recordingObserver) last() models.PlaylistState {
	return r.states[len(r.states)-1]
}

// fixedClock never advances, which exercises revision bumping.
func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
}

func newTestStore(t *testing.T, titles ...string) (*PlaylistStore, *recordingObserver) {
	t.Helper()
	state := models.DefaultState()
	state.UpdatedAt = ""
	state.Slides = nil
	for _, title := range titles {
		state.Slides = append(state.Slides, models.Slide{ID: title, Title: title, Body: title, Raw: title})
	}

	seq := 0
	store := NewPlaylistStore(state,
		WithClock(fixedClock),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	obs := &recordingObserver{}
	store.AddObserver(obs)
	return store, obs
}

func titles(state models.PlaylistState) []string {
	out := make([]string, len(state.Slides))
	for i, s := range state.Slides {
		out[i] = s.Title
	}
	return out
}

func TestAddSlides(t *testing.T) {
	ctx := context.Background()
	store, obs := newTestStore(t, "A")

	n, err := store.AddSlides(ctx, "First\nbody\n\n---\n\n  \n---\nSecond  \n   ---   \nThird")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	state := store.Snapshot()
	assert.Equal(t, []string{"A", "First", "Second", "Third"}, titles(state))
	assert.Equal(t, "First\nbody", state.Slides[1].Body)
	assert.Equal(t, state.Slides[1].Body, state.Slides[1].Raw)
	assert.Equal(t, "id-1", state.Slides[1].ID)
	assert.Equal(t, "id-3", state.Slides[3].ID)

	require.Len(t, obs.states, 1)
	assert.Equal(t, "add-slides", obs.last().Metadata.Notes)
	assert.Equal(t, models.WriterDock, obs.last().Metadata.LastWriter)
}

func TestAddSlidesBlankIsNoop(t *testing.T) {
	store, obs := newTestStore(t, "A")

	for _, text := range []string{"", "   \n\t", "\n---\n"} {
		n, err := store.AddSlides(context.Background(), text)
		require.NoError(t, err)
		assert.Zero(t, n, "%q", text)
	}
	assert.Empty(t, obs.states)
}

func TestDeleteSlideClampsActive(t *testing.T) {
	ctx := context.Background()
	store, obs := newTestStore(t, "A", "B", "C")
	_, err := store.SetActiveSlide(ctx, 2, "test")
	require.NoError(t, err)

	ok, err := store.DeleteSlide(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, store.Snapshot().ActiveSlideIndex)

	ok, err = store.DeleteSlide(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, _ = store.DeleteSlide(ctx, -1)
	assert.False(t, ok)

	assert.Len(t, obs.states, 2)
	assert.Equal(t, "delete-slide", obs.last().Metadata.Notes)
}

func TestDeleteAllEndsAtZero(t *testing.T) {
	ctx := context.Background()
	orders := [][]int{{0, 0, 0, 0}, {3, 2, 1, 0}, {1, 2, 0, 0}, {2, 0, 1, 0}}
	for _, order := range orders {
		store, _ := newTestStore(t, "A", "B", "C", "D")
		_, err := store.SetActiveSlide(ctx, 3, "test")
		require.NoError(t, err)

		for _, index := range order {
			_, err := store.DeleteSlide(ctx, index)
			require.NoError(t, err)
			state := store.Snapshot()
			if len(state.Slides) > 0 {
				assert.Less(t, state.ActiveSlideIndex, len(state.Slides))
			}
		}
		state := store.Snapshot()
		assert.Empty(t, state.Slides, "%v", order)
		assert.Zero(t, state.ActiveSlideIndex, "%v", order)
	}
}

func TestClearAllSlides(t *testing.T) {
	ctx := context.Background()
	store, obs := newTestStore(t, "A", "B")
	_, _ = store.SetActiveSlide(ctx, 1, "test")

	n, err := store.ClearAllSlides(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, store.Snapshot().ActiveSlideIndex)
	assert.NotNil(t, obs.last().Slides)

	n, err = store.ClearAllSlides(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, obs.states, 2)
}

func TestReorderSlideRebasesActive(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		active     int
		from, to   int
		wantOrder  []string
		wantActive int
	}{
		{"move before active to end", 2, 0, 3, []string{"B", "C", "D", "A"}, 1},
		{"move active itself", 2, 2, 0, []string{"C", "A", "B", "D"}, 0},
		{"move after active to front", 1, 3, 0, []string{"D", "A", "B", "C"}, 2},
		{"move onto active from below", 2, 3, 2, []string{"A", "B", "D", "C"}, 3},
		{"move onto active from above", 2, 0, 2, []string{"B", "C", "A", "D"}, 1},
		{"unrelated move", 0, 2, 3, []string{"A", "B", "D", "C"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t, "A", "B", "C", "D")
			_, err := store.SetActiveSlide(ctx, tt.active, "test")
			require.NoError(t, err)
			activeTitle := store.Snapshot().Slides[tt.active].Title

			ok, err := store.ReorderSlide(ctx, tt.from, tt.to)
			require.NoError(t, err)
			require.True(t, ok)

			state := store.Snapshot()
			assert.Equal(t, tt.wantOrder, titles(state))
			assert.Equal(t, tt.wantActive, state.ActiveSlideIndex)
			assert.Equal(t, activeTitle, state.Slides[state.ActiveSlideIndex].Title)
		})
	}
}

func TestReorderSlideNoops(t *testing.T) {
	store, obs := newTestStore(t, "A", "B")
	for _, move := range [][2]int{{1, 1}, {-1, 0}, {0, 2}, {2, 0}} {
		ok, err := store.ReorderSlide(context.Background(), move[0], move[1])
		require.NoError(t, err)
		assert.False(t, ok, "%v", move)
	}
	assert.Empty(t, obs.states)
}

func TestSetActiveSlideClampsAndDedupes(t *testing.T) {
	ctx := context.Background()
	store, obs := newTestStore(t, "A", "B", "C")

	for _, n := range []int{-10, -1, 0, 1, 2, 3, 99} {
		_, err := store.SetActiveSlide(ctx, n, "jump")
		require.NoError(t, err)
		active := store.Snapshot().ActiveSlideIndex
		assert.GreaterOrEqual(t, active, 0)
		assert.LessOrEqual(t, active, 2)
	}

	commits := len(obs.states)
	changed, err := store.SetActiveSlide(ctx, 50, "jump")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, obs.states, commits)

	changed, err = store.Prev(ctx, "lua-prev")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, store.Snapshot().ActiveSlideIndex)
	assert.Equal(t, "lua-prev", obs.last().Metadata.Notes)

	changed, _ = store.Next(ctx, "")
	assert.True(t, changed)
	assert.Equal(t, "manual", obs.last().Metadata.Notes)
}

func TestSetActiveSlideOnEmptyPlaylist(t *testing.T) {
	store, obs := newTestStore(t)
	changed, err := store.SetActiveSlide(context.Background(), 3, "jump")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, store.Snapshot().ActiveSlideIndex)
	assert.Empty(t, obs.states)
}

func TestUpdateSettingsAlwaysCommits(t *testing.T) {
	ctx := context.Background()
	store, obs := newTestStore(t, "A")

	size := 64.0
	kind := models.TransitionZoom
	require.NoError(t, store.UpdateSettings(ctx, SettingsPatch{DefaultFontSizePx: &size, TransitionType: &kind}, "font size"))
	require.NoError(t, store.UpdateSettings(ctx, SettingsPatch{}, ""))

	require.Len(t, obs.states, 2)
	settings := store.Snapshot().Settings
	assert.Equal(t, 64.0, settings.DefaultFontSizePx)
	assert.Equal(t, models.TransitionZoom, settings.TransitionType)
	assert.Equal(t, "'Montserrat', sans-serif", settings.DefaultFontFamily)
	assert.Equal(t, "settings", obs.last().Metadata.Notes)
}

func TestUpdateSettingsValidation(t *testing.T) {
	store, obs := newTestStore(t, "A")

	bad := "spin"
	err := store.UpdateSettings(context.Background(), SettingsPatch{TransitionType: &bad}, "")
	assert.ErrorIs(t, err, ErrInvalidSettings)

	negative := -5
	err = store.UpdateSettings(context.Background(), SettingsPatch{TransitionDuration: &negative}, "")
	assert.ErrorIs(t, err, ErrInvalidSettings)

	zero := 0
	require.NoError(t, store.UpdateSettings(context.Background(), SettingsPatch{TransitionDuration: &zero}, ""))
	assert.Zero(t, store.Snapshot().Settings.TransitionDuration)
	assert.Len(t, obs.states, 1)
}

func TestUpdatePlaylist(t *testing.T) {
	store, _ := newTestStore(t, "A")

	mode := models.ModeAuto
	ms := 5000
	require.NoError(t, store.UpdatePlaylist(context.Background(), PlaylistPatch{Mode: &mode, AutoAdvanceMs: &ms}, ""))
	assert.Equal(t, models.PlaylistOptions{Mode: models.ModeAuto, Loop: true, AutoAdvanceMs: 5000}, store.Snapshot().Playlist)

	bad := "shuffle"
	assert.ErrorIs(t, store.UpdatePlaylist(context.Background(), PlaylistPatch{Mode: &bad}, ""), ErrInvalidSettings)
}

func TestRevisionStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	store, obs := newTestStore(t, "A", "B")

	for i := 0; i < 5; i++ {
		_, err := store.SetActiveSlide(ctx, (i+1)%2, "flip")
		require.NoError(t, err)
	}
	require.Len(t, obs.states, 5)

	var previous time.Time
	for _, state := range obs.states {
		rev, err := models.ParseRevision(state.UpdatedAt)
		require.NoError(t, err)
		assert.True(t, rev.After(previous), state.UpdatedAt)
		previous = rev
	}
	assert.Equal(t, "2026-10-19T12:00:00.000Z", obs.states[0].UpdatedAt)
	assert.Equal(t, "2026-10-19T12:00:00.004Z", obs.states[4].UpdatedAt)
}

func TestObserversReceiveCopies(t *testing.T) {
	store, obs := newTestStore(t, "A")
	_, err := store.AddSlides(context.Background(), "B")
	require.NoError(t, err)

	obs.states[0].Slides[0].Title = "mutated"
	assert.Equal(t, "A", store.Snapshot().Slides[0].Title)
}

func TestObserverFailureKeepsState(t *testing.T) {
	store, obs := newTestStore(t, "A")
	obs.err = errors.New("disk full")
	later := &recordingObserver{}
	store.AddObserver(later)

	_, err := store.AddSlides(context.Background(), "B")
	assert.Error(t, err)
	assert.Len(t, store.Snapshot().Slides, 2)
	assert.Len(t, later.states, 1)
}

func TestStatusLogMessages(t *testing.T) {
	store, _ := newTestStore(t, "A", "B")
	_, _ = store.ReorderSlide(context.Background(), 0, 1)

	entries := store.StatusLog().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Moved slide 1 to position 2.", entries[0].Message)
	assert.Equal(t, "Saved 2 slides (reorder-slides).", entries[1].Message)
}

func TestStatusLogIsBounded(t *testing.T) {
	log := NewStatusLog(3)
	for i := 0; i < 5; i++ {
		log.Appendf("entry %d", i)
	}
	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 4", entries[0].Message)
	assert.Equal(t, "entry 2", entries[2].Message)
}
