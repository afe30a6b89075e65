package models

import (
	"encoding/json"
	"time"
)

// StateVersion is the snapshot format version written by the dock.
const StateVersion = "1.0.0"

// Transition types understood by the overlay
const (
	TransitionNone      = "none"
	TransitionCrossfade = "crossfade"
	TransitionFade      = "fade"
	TransitionSlide     = "slide"
	TransitionZoom      = "zoom"
	TransitionPush      = "push"
)

// Playlist modes
const (
	ModeManual = "manual"
	ModeAuto   = "auto"
)

// Writer identity stamped into metadata on every commit
const (
	WriterDock    = "dock-ui"
	SourceControl = "control-panel"
	SourceOverlay = "browser-overlay"
)

// revisionLayout matches the ISO-8601 form browsers produce for toISOString.
const revisionLayout = "2006-01-02T15:04:05.000Z"

// Slide represents one slide of the playlist
type Slide struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Raw           string   `json:"raw"`
	FontFamily    *string  `json:"fontFamily"`
	FontSizePx    *float64 `json:"fontSizePx"`
	TextAlign     *string  `json:"textAlign"`
	LineHeight    *float64 `json:"lineHeight,omitempty"`
	VerticalAlign *string  `json:"verticalAlign,omitempty"`
	Notes         string   `json:"notes"`
	DurationMs    int      `json:"durationMs"`
}

// Source returns the markdown the overlay renders for the slide.
func (s Slide) Source() string {
	if s.Raw != "" {
		return s.Raw
	}
	return s.Body
}

// Settings represents typography and transition defaults
type Settings struct {
	DefaultFontFamily  string  `json:"defaultFontFamily"`
	DefaultFontSizePx  float64 `json:"defaultFontSizePx"`
	LineHeight         float64 `json:"lineHeight"`
	TextAlign          string  `json:"textAlign"`
	VerticalAlign      string  `json:"verticalAlign"`
	Markdown           bool    `json:"markdown"`
	TransitionType     string  `json:"transitionType"`
	TransitionDuration int     `json:"transitionDuration"`
}

// Metadata records who committed the last revision and why
type Metadata struct {
	LastWriter string `json:"lastWriter"`
	Source     string `json:"source"`
	Notes      string `json:"notes"`
}

// PlaylistOptions controls manual versus automatic advancing
type PlaylistOptions struct {
	Mode          string `json:"mode"`
	Loop          bool   `json:"loop"`
	AutoAdvanceMs int    `json:"autoAdvanceMs"`
}

// PlaylistState is the replicated aggregate shared by dock and overlay
type PlaylistState struct {
	Version          string          `json:"version"`
	UpdatedAt        string          `json:"updatedAt"`
	Metadata         Metadata        `json:"metadata"`
	Settings         Settings        `json:"settings"`
	Slides           []Slide         `json:"slides"`
	ActiveSlideIndex int             `json:"activeSlideIndex"`
	Playlist         PlaylistOptions `json:"playlist"`
}

// Clone returns a deep copy of the state.
func (s PlaylistState) Clone() PlaylistState {
	out := s
	out.Slides = make([]Slide, len(s.Slides))
	for i, slide := range s.Slides {
		out.Slides[i] = slide.clone()
	}
	return out
}

// ActiveSlide returns the slide at the clamped active index.
func (s PlaylistState) ActiveSlide() (Slide, int, bool) {
	if len(s.Slides) == 0 {
		return Slide{}, 0, false
	}
	index := ClampIndex(s.ActiveSlideIndex, len(s.Slides))
	return s.Slides[index], index, true
}

func (s Slide) clone() Slide {
	out := s
	out.FontFamily = cloneString(s.FontFamily)
	out.FontSizePx = cloneFloat(s.FontSizePx)
	out.TextAlign = cloneString(s.TextAlign)
	out.LineHeight = cloneFloat(s.LineHeight)
	out.VerticalAlign = cloneString(s.VerticalAlign)
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ClampIndex forces index into [0, n-1], or 0 when n is zero.
func ClampIndex(index, n int) int {
	if n <= 0 || index < 0 {
		return 0
	}
	if index > n-1 {
		return n - 1
	}
	return index
}

// FormatRevision renders t as an updatedAt revision marker.
func FormatRevision(t time.Time) string {
	return t.UTC().Format(revisionLayout)
}

// ParseRevision parses an updatedAt revision marker.
func ParseRevision(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// DefaultSettings returns the dock's settings defaults
func DefaultSettings() Settings {
	return Settings{
		DefaultFontFamily:  "'Montserrat', sans-serif",
		DefaultFontSizePx:  42,
		LineHeight:         1.25,
		TextAlign:          "center",
		VerticalAlign:      "center",
		Markdown:           true,
		TransitionType:     TransitionCrossfade,
		TransitionDuration: 200,
	}
}

// DefaultState returns the state a fresh dock session starts with
func DefaultState() PlaylistState {
	return PlaylistState{
		Version:   StateVersion,
		UpdatedAt: FormatRevision(time.Now()),
		Metadata: Metadata{
			LastWriter: WriterDock,
			Source:     SourceControl,
			Notes:      "initial",
		},
		Settings: DefaultSettings(),
		Slides: []Slide{
			{
				ID:    "slide-001",
				Title: "Welcome",
				Body:  "### Hello!\nUse `---` on a blank line to create the next slide.",
				Raw:   "Welcome\n\n### Hello!\nUse `---` on a blank line to create the next slide.",
			},
			{
				ID:    "slide-002",
				Title: "Demo",
				Body:  "- Edit everything inside the dock\n- Auto-sync pushes changes every second",
				Raw:   "Demo\n\n- Edit everything inside the dock\n- Auto-sync pushes changes every second",
			},
		},
		ActiveSlideIndex: 0,
		Playlist: PlaylistOptions{
			Mode:          ModeManual,
			Loop:          true,
			AutoAdvanceMs: 0,
		},
	}
}

// MarshalJSON keeps slides an array even when empty so receivers never
// mistake a cleared playlist for a malformed snapshot.
func (s PlaylistState) MarshalJSON() ([]byte, error) {
	type alias PlaylistState
	out := alias(s)
	if out.Slides == nil {
		out.Slides = []Slide{}
	}
	return json.Marshal(out)
}
