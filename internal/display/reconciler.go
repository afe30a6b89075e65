package display

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"obs-text-slides/internal/markdown"
	"obs-text-slides/internal/models"
	"obs-text-slides/internal/transport"
)

// decodeBase leaves typography unset so the builtin defaults apply, but
// renders markdown unless a snapshot turns it off.
var decodeBase = models.PlaylistState{Settings: models.Settings{Markdown: true}}

// Renderer paints frames and placeholders. Implementations only present;
// the Reconciler decides when to call them.
type Renderer interface {
	Render(frame Frame)
	Placeholder(status Status, message string)
	StartCountdown(d time.Duration)
	ClearCountdown()
}

// Reconciler applies snapshots to a Renderer, rendering at most once per
// distinct (updatedAt, active index) pair.
type Reconciler struct {
	renderer Renderer
	compiler *markdown.Cache
	builtin  Defaults
	logger   *slog.Logger

	mu        sync.Mutex
	status    Status
	detail    string
	applied   bool
	updatedAt string
	index     int
	total     int
}

// NewReconciler creates a reconciler driving renderer.
func NewReconciler(renderer Renderer, compiler *markdown.Cache, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		renderer: renderer,
		compiler: compiler,
		builtin:  Builtin(),
		logger:   logger,
		status:   StatusBooting,
	}
}

// Run subscribes to sub and handles deliveries until ctx ends.
func (r *Reconciler) Run(ctx context.Context, sub transport.Subscriber) error {
	r.mu.Lock()
	if r.status == StatusBooting {
		r.status = StatusLoading
	}
	r.mu.Unlock()

	return sub.Subscribe(ctx, r.Handle)
}

// Status returns the current lifecycle state.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Debug describes the current state for the debug overlay, e.g.
// "state: ready (#2/5)".
func (r *Reconciler) Debug() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status {
	case StatusReady:
		return fmt.Sprintf("state: ready (#%d/%d)", r.index+1, r.total)
	case StatusError:
		return fmt.Sprintf("state: error (%s)", r.detail)
	default:
		return "state: " + string(r.status)
	}
}

// Handle applies one delivery.
func (r *Reconciler) Handle(d transport.Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.Err != nil {
		r.fail(d.Err)
		return
	}

	state, err := models.DecodeState(d.Payload, decodeBase)
	switch {
	case errors.Is(err, models.ErrNoSlides):
		r.empty()
		return
	case err != nil:
		r.fail(err)
		return
	case len(state.Slides) == 0:
		r.empty()
		return
	}

	index := models.ClampIndex(state.ActiveSlideIndex, len(state.Slides))
	if r.applied && r.status == StatusReady && state.UpdatedAt == r.updatedAt && index == r.index {
		return
	}
	r.applied = true
	r.updatedAt = state.UpdatedAt
	r.index = index
	r.total = len(state.Slides)
	r.status = StatusReady
	r.detail = ""

	slide := state.Slides[index]
	markup := EmptySlideMarkup
	if source := slide.Source(); source != "" {
		markup = r.compiler.Render(source, state.Settings.Markdown)
	}

	r.renderer.Render(Frame{
		Markup:     markup,
		Typography: ResolveTypography(slide, state.Settings, r.builtin),
		Transition: ResolveTransition(state.Settings, r.builtin),
		SlideID:    slide.ID,
		Index:      index,
		Total:      len(state.Slides),
	})

	if wait := countdown(slide, state.Playlist); wait > 0 {
		r.renderer.StartCountdown(wait)
	} else {
		r.renderer.ClearCountdown()
	}

	r.logger.Debug("slide rendered",
		slog.String("via", d.Via),
		slog.String("updatedAt", state.UpdatedAt),
		slog.Int("index", index),
		slog.Int("total", len(state.Slides)),
	)
}

func (r *Reconciler) empty() {
	r.applied = false
	if r.status == StatusEmpty {
		return
	}
	r.status = StatusEmpty
	r.detail = ""
	r.renderer.Placeholder(StatusEmpty, WaitingMessage)
	r.renderer.ClearCountdown()
}

// fail shows the error placeholder. The dedupe key is dropped so the next
// good snapshot repaints even when it is unchanged.
func (r *Reconciler) fail(err error) {
	r.applied = false
	detail := err.Error()
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		detail = "invalid JSON"
	}
	if r.status == StatusError && r.detail == detail {
		return
	}
	r.status = StatusError
	r.detail = detail
	r.renderer.Placeholder(StatusError, LoadErrorMessage)
	r.renderer.ClearCountdown()
	r.logger.Warn("snapshot unavailable", slog.String("error", detail))
}

func countdown(slide models.Slide, playlist models.PlaylistOptions) time.Duration {
	ms := slide.DurationMs
	if ms <= 0 {
		ms = playlist.AutoAdvanceMs
	}
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
