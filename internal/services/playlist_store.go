package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"obs-text-slides/internal/models"
)

// slideDelimiter separates slides in pasted text: a line holding only ---.
var slideDelimiter = regexp.MustCompile(`\n\s*---\s*\n`)

// StateObserver is notified after every committed mutation with a private
// copy of the new state. Observers run in registration order.
type StateObserver interface {
	StateCommitted(ctx context.Context, state models.PlaylistState) error
}

// StateObserverFunc adapts a function to StateObserver.
type StateObserverFunc func(ctx context.Context, state models.PlaylistState) error

// StateCommitted calls f.
func (f StateObserverFunc) StateCommitted(ctx context.Context, state models.PlaylistState) error {
	return f(ctx, state)
}

// PlaylistStore owns the canonical playlist state of the dock. Every
// operation holds the lock from mutation through notification, so no
// observer ever sees a partially applied change and operations never
// interleave.
type PlaylistStore struct {
	mu        sync.Mutex
	state     models.PlaylistState
	revision  time.Time
	observers []StateObserver
	status    *StatusLog
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// StoreOption configures a PlaylistStore
type StoreOption func(*PlaylistStore)

// WithClock overrides the wall clock used for revisions.
func WithClock(now func() time.Time) StoreOption {
	return func(s *PlaylistStore) { s.now = now }
}

// WithIDGenerator overrides slide id generation.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *PlaylistStore) { s.newID = newID }
}

// WithStatusLog records human-readable activity into log.
func WithStatusLog(log *StatusLog) StoreOption {
	return func(s *PlaylistStore) { s.status = log }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *PlaylistStore) { s.logger = logger }
}

// NewPlaylistStore creates a store seeded with initial.
func NewPlaylistStore(initial models.PlaylistState, opts ...StoreOption) *PlaylistStore {
	s := &PlaylistStore{
		state:  initial.Clone(),
		status: NewStatusLog(DefaultStatusLogSize),
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return "slide-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if rev, err := models.ParseRevision(initial.UpdatedAt); err == nil {
		s.revision = rev
	}
	s.state.ActiveSlideIndex = models.ClampIndex(s.state.ActiveSlideIndex, len(s.state.Slides))
	return s
}

// AddObserver registers an observer for subsequent commits.
func (s *PlaylistStore) AddObserver(o StateObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Snapshot returns a copy of the current state.
func (s *PlaylistStore) Snapshot() models.PlaylistState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// StatusLog returns the store's activity log.
func (s *PlaylistStore) StatusLog() *StatusLog {
	return s.status
}

// AddSlides parses text into slides and appends them. It returns the number
// of slides added; blank text adds nothing and commits nothing.
func (s *PlaylistStore) AddSlides(ctx context.Context, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	slides := s.parseSlides(text)
	if len(slides) == 0 {
		return 0, nil
	}
	s.state.Slides = append(s.state.Slides, slides...)

	err := s.commit(ctx, "add-slides")
	s.status.Appendf("Added %d slide%s.", len(slides), plural(len(slides)))
	return len(slides), err
}

func (s *PlaylistStore) parseSlides(text string) []models.Slide {
	var slides []models.Slide
	for _, chunk := range slideDelimiter.Split(text, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		title, _, _ := strings.Cut(chunk, "\n")
		title = strings.TrimSpace(title)
		if title == "" {
			title = fmt.Sprintf("Slide %d", len(slides)+1)
		}
		slides = append(slides, models.Slide{
			ID:    s.newID(),
			Title: title,
			Body:  chunk,
			Raw:   chunk,
		})
	}
	return slides
}

// DeleteSlide removes the slide at index. Out-of-range indices are ignored.
func (s *PlaylistStore) DeleteSlide(ctx context.Context, index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.state.Slides) {
		return false, nil
	}

	s.state.Slides = append(s.state.Slides[:index], s.state.Slides[index+1:]...)
	if s.state.ActiveSlideIndex >= len(s.state.Slides) {
		s.state.ActiveSlideIndex = models.ClampIndex(len(s.state.Slides)-1, len(s.state.Slides))
	}

	err := s.commit(ctx, "delete-slide")
	s.status.Appendf("Deleted slide %d.", index+1)
	return true, err
}

// ClearAllSlides empties the playlist. It is a no-op when already empty.
func (s *PlaylistStore) ClearAllSlides(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.state.Slides)
	if count == 0 {
		return 0, nil
	}
	s.state.Slides = []models.Slide{}
	s.state.ActiveSlideIndex = 0

	err := s.commit(ctx, "clear-all")
	s.status.Appendf("Cleared all %d slides.", count)
	return count, err
}

// ReorderSlide moves the slide at from to position to. The active index
// keeps pointing at the same slide.
func (s *PlaylistStore) ReorderSlide(ctx context.Context, from, to int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.state.Slides)
	if from == to || from < 0 || from >= n || to < 0 || to >= n {
		return false, nil
	}

	moved := s.state.Slides[from]
	slides := append(s.state.Slides[:from:from], s.state.Slides[from+1:]...)
	slides = append(slides[:to], append([]models.Slide{moved}, slides[to:]...)...)
	s.state.Slides = slides

	active := s.state.ActiveSlideIndex
	switch {
	case active == from:
		active = to
	case from < active && active <= to:
		active--
	case to <= active && active < from:
		active++
	}
	s.state.ActiveSlideIndex = active

	err := s.commit(ctx, "reorder-slides")
	s.status.Appendf("Moved slide %d to position %d.", from+1, to+1)
	return true, err
}

// SetActiveSlide makes index the active slide, clamped into range. Nothing
// is committed when the clamped index is already active or the playlist is
// empty, so repeated commands do not cause broadcast storms.
func (s *PlaylistStore) SetActiveSlide(ctx context.Context, index int, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setActive(ctx, index, reason)
}

// Next advances the active slide by one.
func (s *PlaylistStore) Next(ctx context.Context, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setActive(ctx, s.state.ActiveSlideIndex+1, reason)
}

// Prev moves the active slide back by one.
func (s *PlaylistStore) Prev(ctx context.Context, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setActive(ctx, s.state.ActiveSlideIndex-1, reason)
}

func (s *PlaylistStore) setActive(ctx context.Context, index int, reason string) (bool, error) {
	if len(s.state.Slides) == 0 {
		return false, nil
	}
	clamped := models.ClampIndex(index, len(s.state.Slides))
	if clamped == s.state.ActiveSlideIndex {
		return false, nil
	}
	s.state.ActiveSlideIndex = clamped
	return true, s.commit(ctx, reasonOr(reason, "manual"))
}

// UpdateSettings merges patch into the settings. Settings updates always
// commit, even when nothing changed.
func (s *PlaylistStore) UpdateSettings(ctx context.Context, patch SettingsPatch, reason string) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	patch.Apply(&s.state.Settings)
	return s.commit(ctx, reasonOr(reason, "settings"))
}

// UpdatePlaylist merges patch into the playlist options.
func (s *PlaylistStore) UpdatePlaylist(ctx context.Context, patch PlaylistPatch, reason string) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	patch.Apply(&s.state.Playlist)
	return s.commit(ctx, reasonOr(reason, "playlist"))
}

// commit stamps a new revision and notifies observers. Must be called with
// the lock held.
func (s *PlaylistStore) commit(ctx context.Context, reason string) error {
	s.revision = s.nextRevision()
	s.state.UpdatedAt = models.FormatRevision(s.revision)
	s.state.Metadata = models.Metadata{
		LastWriter: models.WriterDock,
		Source:     models.SourceControl,
		Notes:      reason,
	}

	var errs []error
	for _, o := range s.observers {
		if err := o.StateCommitted(ctx, s.state.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	s.status.Appendf("Saved %d slides (%s).", len(s.state.Slides), reason)
	s.logger.Debug("state committed",
		slog.String("reason", reason),
		slog.String("updatedAt", s.state.UpdatedAt),
		slog.Int("slides", len(s.state.Slides)),
		slog.Int("active", s.state.ActiveSlideIndex))

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("failed to publish state", slog.String("reason", reason), slog.String("error", err.Error()))
		return fmt.Errorf("state committed but not fully published: %w", err)
	}
	return nil
}

// nextRevision returns a millisecond timestamp strictly after the previous
// revision, even if the wall clock stalls or steps backwards.
func (s *PlaylistStore) nextRevision() time.Time {
	next := s.now().UTC().Truncate(time.Millisecond)
	if !next.After(s.revision) {
		next = s.revision.Add(time.Millisecond)
	}
	return next
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
