// Package display turns replicated playlist snapshots into rendered frames.
package display

import (
	"obs-text-slides/internal/models"
)

// Status is the reconciler's lifecycle state
type Status string

const (
	StatusBooting Status = "booting"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

// Placeholder texts
const (
	WaitingMessage   = "Waiting for the dock to publish…"
	LoadErrorMessage = "Unable to load slides from JSON."
	EmptySlideMarkup = "<p>(empty slide)</p>"
)

// Typography is the effective text styling of one slide
type Typography struct {
	FontFamily    string  `json:"fontFamily"`
	FontSizePx    float64 `json:"fontSizePx"`
	TextAlign     string  `json:"textAlign"`
	LineHeight    float64 `json:"lineHeight"`
	VerticalAlign string  `json:"verticalAlign"`
}

// Transition is the effect used when a new frame replaces the old one
type Transition struct {
	Type       string `json:"type"`
	DurationMs int    `json:"durationMs"`
}

// Defaults are the values used when neither slide nor settings specify one
type Defaults struct {
	Typography Typography
	Transition Transition
}

// Builtin returns the display's built-in defaults.
func Builtin() Defaults {
	return Defaults{
		Typography: Typography{
			FontFamily:    "Inter, 'Segoe UI', sans-serif",
			FontSizePx:    36,
			TextAlign:     "center",
			LineHeight:    1.2,
			VerticalAlign: "center",
		},
		Transition: Transition{
			Type:       models.TransitionCrossfade,
			DurationMs: 200,
		},
	}
}

// Frame is everything a Renderer needs to paint one slide
type Frame struct {
	Markup     string
	Typography Typography
	Transition Transition
	SlideID    string
	Index      int
	Total      int
}

// ResolveTypography layers slide overrides over settings over builtin.
func ResolveTypography(slide models.Slide, settings models.Settings, builtin Defaults) Typography {
	def := builtin.Typography
	return Typography{
		FontFamily:    firstString(slide.FontFamily, settings.DefaultFontFamily, def.FontFamily),
		FontSizePx:    firstFloat(slide.FontSizePx, settings.DefaultFontSizePx, def.FontSizePx),
		TextAlign:     firstString(slide.TextAlign, settings.TextAlign, def.TextAlign),
		LineHeight:    firstFloat(slide.LineHeight, settings.LineHeight, def.LineHeight),
		VerticalAlign: firstString(slide.VerticalAlign, settings.VerticalAlign, def.VerticalAlign),
	}
}

// ResolveTransition falls back to builtin for an unset type or duration.
func ResolveTransition(settings models.Settings, builtin Defaults) Transition {
	out := builtin.Transition
	if settings.TransitionType != "" {
		out.Type = settings.TransitionType
	}
	if settings.TransitionDuration > 0 {
		out.DurationMs = settings.TransitionDuration
	}
	return out
}

func firstString(override *string, setting, fallback string) string {
	if override != nil && *override != "" {
		return *override
	}
	if setting != "" {
		return setting
	}
	return fallback
}

func firstFloat(override *float64, setting, fallback float64) float64 {
	if override != nil && *override > 0 {
		return *override
	}
	if setting > 0 {
		return setting
	}
	return fallback
}
