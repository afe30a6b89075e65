package display

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obs-text-slides/internal/markdown"
	"obs-text-slides/internal/models"
	"obs-text-slides/internal/transport"
)

type call struct {
	kind    string
	frame   Frame
	status  Status
	message string
	wait    time.Duration
}

type fakeRenderer struct {
	calls []call
}

func (f *fakeRenderer) Render(frame Frame) {
	f.calls = append(f.calls, call{kind: "render", frame: frame})
}

func (f *fakeRenderer) Placeholder(status Status, message string) {
	f.calls = append(f.calls, call{kind: "placeholder", status: status, message: message})
}

func (f *fakeRenderer) StartCountdown(d time.Duration) {
	f.calls = append(f.calls, call{kind: "countdown", wait: d})
}

func (f *fakeRenderer) ClearCountdown() {
	f.calls = append(f.calls, call{kind: "clear"})
}

func (f *fakeRenderer) renders() []Frame {
	var out []Frame
	for _, c := range f.calls {
		if c.kind == "render" {
			out = append(out, c.frame)
		}
	}
	return out
}

func (f *fakeRenderer) last() call {
	return f.calls[len(f.calls)-1]
}

func newTestReconciler(t *testing.T) (*Reconciler, *fakeRenderer) {
	t.Helper()
	cache, err := markdown.NewCache(0)
	require.NoError(t, err)
	renderer := &fakeRenderer{}
	return NewReconciler(renderer, cache, nil), renderer
}

func deliver(payload string) transport.Delivery {
	return transport.Delivery{Payload: []byte(payload), Via: transport.ViaBus}
}

const twoSlides = `{
	"updatedAt": "2026-10-19T12:00:00.000Z",
	"activeSlideIndex": 1,
	"settings": {"defaultFontSizePx": 50, "markdown": true, "transitionType": "zoom", "transitionDuration": 400},
	"slides": [
		{"id": "a", "raw": "# A"},
		{"id": "b", "raw": "**B**", "textAlign": "left", "durationMs": 1500}
	],
	"playlist": {"mode": "manual", "autoAdvanceMs": 0}
}`

func TestReconcilerRendersActiveSlide(t *testing.T) {
	r, renderer := newTestReconciler(t)
	assert.Equal(t, StatusBooting, r.Status())

	r.Handle(deliver(twoSlides))

	frames := renderer.renders()
	require.Len(t, frames, 1)
	frame := frames[0]
	assert.Equal(t, "<p><strong>B</strong></p>", frame.Markup)
	assert.Equal(t, "b", frame.SlideID)
	assert.Equal(t, 1, frame.Index)
	assert.Equal(t, 2, frame.Total)
	assert.Equal(t, Typography{
		FontFamily:    "Inter, 'Segoe UI', sans-serif",
		FontSizePx:    50,
		TextAlign:     "left",
		LineHeight:    1.2,
		VerticalAlign: "center",
	}, frame.Typography)
	assert.Equal(t, Transition{Type: "zoom", DurationMs: 400}, frame.Transition)

	assert.Equal(t, call{kind: "countdown", wait: 1500 * time.Millisecond}, renderer.last())
	assert.Equal(t, StatusReady, r.Status())
	assert.Equal(t, "state: ready (#2/2)", r.Debug())
}

func TestReconcilerDedupesIdenticalSnapshots(t *testing.T) {
	r, renderer := newTestReconciler(t)

	r.Handle(deliver(twoSlides))
	r.Handle(deliver(twoSlides))
	r.Handle(transport.Delivery{Payload: []byte(twoSlides), Via: transport.ViaPoll})

	assert.Len(t, renderer.renders(), 1)
	assert.Len(t, renderer.calls, 2, "render and countdown only once")
}

func TestReconcilerRendersOnRevisionOrIndexChange(t *testing.T) {
	r, renderer := newTestReconciler(t)

	r.Handle(deliver(`{"updatedAt":"r1","activeSlideIndex":0,"slides":[{"raw":"one"},{"raw":"two"}]}`))
	r.Handle(deliver(`{"updatedAt":"r1","activeSlideIndex":1,"slides":[{"raw":"one"},{"raw":"two"}]}`))
	r.Handle(deliver(`{"updatedAt":"r2","activeSlideIndex":1,"slides":[{"raw":"one"},{"raw":"TWO"}]}`))
	// Clamped to the same index as before.
	r.Handle(deliver(`{"updatedAt":"r2","activeSlideIndex":9,"slides":[{"raw":"one"},{"raw":"TWO"}]}`))

	frames := renderer.renders()
	require.Len(t, frames, 3)
	assert.Equal(t, "<p>one</p>", frames[0].Markup)
	assert.Equal(t, "<p>two</p>", frames[1].Markup)
	assert.Equal(t, "<p>TWO</p>", frames[2].Markup)
}

func TestReconcilerEmptyPlaylist(t *testing.T) {
	for name, payload := range map[string]string{
		"empty array":   `{"updatedAt":"r1","slides":[]}`,
		"missing":       `{"updatedAt":"r1"}`,
		"not an array":  `{"slides":"nope"}`,
		"null document": `null`,
	} {
		t.Run(name, func(t *testing.T) {
			r, renderer := newTestReconciler(t)
			r.Handle(deliver(payload))

			assert.Equal(t, StatusEmpty, r.Status())
			require.Len(t, renderer.calls, 2)
			assert.Equal(t, call{kind: "placeholder", status: StatusEmpty, message: WaitingMessage}, renderer.calls[0])
			assert.Equal(t, call{kind: "clear"}, renderer.calls[1])
			assert.Equal(t, "state: empty", r.Debug())
		})
	}
}

func TestReconcilerErrorThenRecovery(t *testing.T) {
	r, renderer := newTestReconciler(t)
	good := `{"updatedAt":"r1","slides":[{"raw":"hello"}]}`

	r.Handle(deliver(good))
	r.Handle(transport.Delivery{Err: errors.New("HTTP 404"), Via: transport.ViaPoll})

	assert.Equal(t, StatusError, r.Status())
	assert.Equal(t, "state: error (HTTP 404)", r.Debug())
	assert.Equal(t, call{kind: "clear"}, renderer.last())
	assert.Contains(t, renderer.calls, call{kind: "placeholder", status: StatusError, message: LoadErrorMessage})

	r.Handle(transport.Delivery{Err: errors.New("HTTP 404"), Via: transport.ViaPoll})
	before := len(renderer.calls)

	r.Handle(deliver(good))
	assert.Len(t, renderer.renders(), 2, "unchanged snapshot repaints after an error")
	assert.Greater(t, len(renderer.calls), before)
	assert.Equal(t, StatusReady, r.Status())
}

func TestReconcilerUnparseablePayloadIsError(t *testing.T) {
	r, renderer := newTestReconciler(t)
	r.Handle(deliver(`{"slides": [`))

	assert.Equal(t, StatusError, r.Status())
	assert.Equal(t, "state: error (invalid JSON)", r.Debug())
	assert.Empty(t, renderer.renders())
}

func TestReconcilerToleratesWrongShapedFields(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		fontSize float64
		wait     time.Duration
	}{
		{"fractional duration", `{"updatedAt":"r1","slides":[{"raw":"hi","durationMs":1500.5}]}`, 36, 1500 * time.Millisecond},
		{"string font size", `{"updatedAt":"r1","slides":[{"raw":"hi","fontSizePx":"48"}],"settings":{"defaultFontSizePx":40}}`, 40, 0},
		{"settings not an object", `{"updatedAt":"r1","settings":"oops","slides":[{"raw":"hi"}]}`, 36, 0},
		{"playlist not an object", `{"updatedAt":"r1","playlist":[1],"slides":[{"raw":"hi"}]}`, 36, 0},
		{"slide not an object", `{"updatedAt":"r1","slides":[7]}`, 36, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, renderer := newTestReconciler(t)
			r.Handle(deliver(tt.payload))

			assert.Equal(t, StatusReady, r.Status())
			frames := renderer.renders()
			require.Len(t, frames, 1)
			assert.Equal(t, tt.fontSize, frames[0].Typography.FontSizePx)
			if tt.wait > 0 {
				assert.Equal(t, call{kind: "countdown", wait: tt.wait}, renderer.last())
			} else {
				assert.Equal(t, call{kind: "clear"}, renderer.last())
			}
		})
	}
}

func TestReconcilerEmptySlideAndPlainText(t *testing.T) {
	r, renderer := newTestReconciler(t)

	r.Handle(deliver(`{"updatedAt":"r1","slides":[{"raw":"","body":""}],"playlist":{"autoAdvanceMs":0}}`))
	r.Handle(deliver(`{"updatedAt":"r2","settings":{"markdown":false},"slides":[{"body":"**not bold**"}],"playlist":{"autoAdvanceMs":3000}}`))

	assert.Equal(t, call{kind: "countdown", wait: 3 * time.Second}, renderer.last())
	r.Handle(deliver(`{"updatedAt":"r3","slides":[{"raw":"**bold**"}]}`))

	frames := renderer.renders()
	require.Len(t, frames, 3)
	assert.Equal(t, EmptySlideMarkup, frames[0].Markup)
	assert.Equal(t, "<p>**not bold**</p>", frames[1].Markup)
	assert.Equal(t, "<p><strong>bold</strong></p>", frames[2].Markup, "markdown is on unless disabled")
}

func TestReconcilerRunPollsWhenBusIsMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/slides.state.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"updatedAt":"r1","slides":[{"raw":"from file"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	bus, err := transport.NewBusClient(srv.URL, nil)
	require.NoError(t, err)
	bus.Fallback, err = transport.NewPoller(srv.URL+"/data/slides.state.json", 50*time.Millisecond, nil)
	require.NoError(t, err)

	cache, err := markdown.NewCache(0)
	require.NoError(t, err)
	r := NewReconciler(NewLogRenderer(nil), cache, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, bus) }()

	require.Eventually(t, func() bool { return r.Status() == StatusReady }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "state: ready (#1/1)", r.Debug())
	cancel()
	require.NoError(t, <-done)
}

func TestResolveTypographyLayers(t *testing.T) {
	builtin := Builtin()
	settings := models.DefaultSettings()
	family := "Georgia"
	zero := 0.0
	empty := ""

	got := ResolveTypography(models.Slide{}, models.Settings{}, builtin)
	assert.Equal(t, builtin.Typography, got, "nothing set falls through to builtin")

	got = ResolveTypography(models.Slide{FontFamily: &empty, FontSizePx: &zero}, settings, builtin)
	assert.Equal(t, settings.DefaultFontFamily, got.FontFamily)
	assert.Equal(t, settings.DefaultFontSizePx, got.FontSizePx)
	assert.Equal(t, settings.LineHeight, got.LineHeight)

	got = ResolveTypography(models.Slide{FontFamily: &family}, settings, builtin)
	assert.Equal(t, "Georgia", got.FontFamily)
}

func TestResolveTransition(t *testing.T) {
	builtin := Builtin()
	assert.Equal(t, builtin.Transition, ResolveTransition(models.Settings{}, builtin))
	assert.Equal(t, Transition{Type: "none", DurationMs: 200},
		ResolveTransition(models.Settings{TransitionType: "none"}, builtin))
	assert.Equal(t, Transition{Type: "push", DurationMs: 750},
		ResolveTransition(models.Settings{TransitionType: "push", TransitionDuration: 750}, builtin))
}
