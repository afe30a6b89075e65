package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"obs-text-slides/internal/models"
)

// Advancer moves to the next slide if the state is still at revision.
type Advancer interface {
	AutoAdvance(ctx context.Context, revision string) (bool, error)
}

// Autoplay advances slides on a timer while the playlist is in auto mode.
// It observes commits and re-arms on each one, so a manual change restarts
// the countdown for the newly active slide.
type Autoplay struct {
	advancer Advancer
	logger   *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewAutoplay creates an Autoplay driving advancer.
func NewAutoplay(advancer Advancer, logger *slog.Logger) *Autoplay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Autoplay{advancer: advancer, logger: logger}
}

// AdvanceDelay returns how long the active slide stays up in auto mode, or
// zero when it should not advance on its own.
func AdvanceDelay(state models.PlaylistState) time.Duration {
	if state.Playlist.Mode != models.ModeAuto {
		return 0
	}
	slide, index, ok := state.ActiveSlide()
	if !ok {
		return 0
	}
	if !state.Playlist.Loop && index == len(state.Slides)-1 {
		return 0
	}
	ms := slide.DurationMs
	if ms <= 0 {
		ms = state.Playlist.AutoAdvanceMs
	}
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// StateCommitted re-arms the timer for state.
func (a *Autoplay) StateCommitted(_ context.Context, state models.PlaylistState) error {
	a.arm(state)
	return nil
}

// Start arms the timer for the state a session begins with.
func (a *Autoplay) Start(state models.PlaylistState) {
	a.arm(state)
}

// Stop disarms the timer.
func (a *Autoplay) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Autoplay) arm(state models.PlaylistState) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	delay := AdvanceDelay(state)
	if delay == 0 {
		return
	}
	revision := state.UpdatedAt
	a.timer = time.AfterFunc(delay, func() {
		if _, err := a.advancer.AutoAdvance(context.Background(), revision); err != nil {
			a.logger.Error("auto-advance failed", slog.String("error", err.Error()))
		}
	})
}

// AutoAdvance moves to the next slide, wrapping when the playlist loops,
// but only if nothing was committed since revision.
func (s *PlaylistStore) AutoAdvance(ctx context.Context, revision string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.state.Slides)
	if s.state.UpdatedAt != revision || n == 0 || s.state.Playlist.Mode != models.ModeAuto {
		return false, nil
	}
	next := s.state.ActiveSlideIndex + 1
	if next >= n {
		if !s.state.Playlist.Loop {
			return false, nil
		}
		next = 0
	}
	return s.setActive(ctx, next, "auto-advance")
}
