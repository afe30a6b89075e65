package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrNoSlides is returned when a snapshot carries no slides array.
var ErrNoSlides = errors.New("snapshot has no slides array")

// object is a JSON object whose members are decoded one at a time.
type object map[string]json.RawMessage

// DecodeState parses a snapshot document leniently. Fields that are missing,
// null or of the wrong shape keep the value of base, so callers choose their
// own defaults. A document that is valid JSON but has no slides array yields
// ErrNoSlides. Only a syntax error is reported as a decode failure.
func DecodeState(data []byte, base PlaylistState) (PlaylistState, error) {
	var syntax any
	if err := json.Unmarshal(data, &syntax); err != nil {
		return PlaylistState{}, fmt.Errorf("decode snapshot: %w", err)
	}

	doc, ok := asObject(data)
	if !ok {
		return PlaylistState{}, ErrNoSlides
	}
	var rawSlides []json.RawMessage
	if !isArray(doc["slides"]) || json.Unmarshal(doc["slides"], &rawSlides) != nil {
		return PlaylistState{}, ErrNoSlides
	}

	state := base.Clone()
	decodeString(doc, "version", &state.Version)
	decodeString(doc, "updatedAt", &state.UpdatedAt)
	decodeInt(doc, "activeSlideIndex", &state.ActiveSlideIndex)

	if meta, ok := asObject(doc["metadata"]); ok {
		decodeString(meta, "lastWriter", &state.Metadata.LastWriter)
		decodeString(meta, "source", &state.Metadata.Source)
		decodeString(meta, "notes", &state.Metadata.Notes)
	}
	if settings, ok := asObject(doc["settings"]); ok {
		decodeSettings(settings, &state.Settings)
	}
	if playlist, ok := asObject(doc["playlist"]); ok {
		decodeString(playlist, "mode", &state.Playlist.Mode)
		decodeBool(playlist, "loop", &state.Playlist.Loop)
		decodeInt(playlist, "autoAdvanceMs", &state.Playlist.AutoAdvanceMs)
	}

	state.Slides = make([]Slide, 0, len(rawSlides))
	for _, raw := range rawSlides {
		state.Slides = append(state.Slides, decodeSlide(raw))
	}
	return state, nil
}

func decodeSettings(o object, s *Settings) {
	decodeString(o, "defaultFontFamily", &s.DefaultFontFamily)
	decodeFloat(o, "defaultFontSizePx", &s.DefaultFontSizePx)
	decodeFloat(o, "lineHeight", &s.LineHeight)
	decodeString(o, "textAlign", &s.TextAlign)
	decodeString(o, "verticalAlign", &s.VerticalAlign)
	decodeBool(o, "markdown", &s.Markdown)
	decodeString(o, "transitionType", &s.TransitionType)
	decodeInt(o, "transitionDuration", &s.TransitionDuration)
}

// decodeSlide never fails: an element that is not an object is an empty slide.
func decodeSlide(raw json.RawMessage) Slide {
	var slide Slide
	o, ok := asObject(raw)
	if !ok {
		return slide
	}
	decodeString(o, "id", &slide.ID)
	decodeString(o, "title", &slide.Title)
	decodeString(o, "body", &slide.Body)
	decodeString(o, "raw", &slide.Raw)
	decodeString(o, "notes", &slide.Notes)
	decodeInt(o, "durationMs", &slide.DurationMs)
	slide.FontFamily = optionalString(o, "fontFamily")
	slide.FontSizePx = optionalFloat(o, "fontSizePx")
	slide.TextAlign = optionalString(o, "textAlign")
	slide.LineHeight = optionalFloat(o, "lineHeight")
	slide.VerticalAlign = optionalString(o, "verticalAlign")
	return slide
}

func asObject(raw json.RawMessage) (object, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var o object
	if err := json.Unmarshal(trimmed, &o); err != nil {
		return nil, false
	}
	return o, true
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// lookup unmarshals member key into dst and reports whether it was present,
// non-null and of the right shape.
func lookup(o object, key string, dst any) bool {
	raw, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func decodeString(o object, key string, dst *string) {
	var v string
	if lookup(o, key, &v) {
		*dst = v
	}
}

func decodeBool(o object, key string, dst *bool) {
	var v bool
	if lookup(o, key, &v) {
		*dst = v
	}
}

func decodeFloat(o object, key string, dst *float64) {
	var v float64
	if lookup(o, key, &v) {
		*dst = v
	}
}

// decodeInt accepts any JSON number and truncates it toward zero.
func decodeInt(o object, key string, dst *int) {
	var v float64
	if lookup(o, key, &v) && v >= math.MinInt32 && v <= math.MaxInt32 {
		*dst = int(v)
	}
}

func optionalString(o object, key string) *string {
	var v string
	if !lookup(o, key, &v) {
		return nil
	}
	return &v
}

func optionalFloat(o object, key string) *float64 {
	var v float64
	if !lookup(o, key, &v) {
		return nil
	}
	return &v
}
