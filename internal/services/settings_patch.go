package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"obs-text-slides/internal/models"
)

// ErrInvalidSettings wraps validation failures of settings and playlist patches.
var ErrInvalidSettings = errors.New("invalid settings")

var (
	transitionTypes = []interface{}{
		models.TransitionNone,
		models.TransitionCrossfade,
		models.TransitionFade,
		models.TransitionSlide,
		models.TransitionZoom,
		models.TransitionPush,
	}
	textAligns     = []interface{}{"left", "center", "right"}
	verticalAligns = []interface{}{"flex-start", "center", "flex-end", "top", "bottom"}
	playlistModes  = []interface{}{models.ModeManual, models.ModeAuto}
)

// SettingsPatch carries the settings fields an update changes; nil fields
// are left alone.
type SettingsPatch struct {
	DefaultFontFamily  *string  `json:"defaultFontFamily,omitempty"`
	DefaultFontSizePx  *float64 `json:"defaultFontSizePx,omitempty"`
	LineHeight         *float64 `json:"lineHeight,omitempty"`
	TextAlign          *string  `json:"textAlign,omitempty"`
	VerticalAlign      *string  `json:"verticalAlign,omitempty"`
	Markdown           *bool    `json:"markdown,omitempty"`
	TransitionType     *string  `json:"transitionType,omitempty"`
	TransitionDuration *int     `json:"transitionDuration,omitempty"`
}

// Validate checks the provided fields.
func (p SettingsPatch) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.DefaultFontFamily, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&p.DefaultFontSizePx, validation.NilOrNotEmpty, validation.Min(1.0), validation.Max(1000.0)),
		validation.Field(&p.LineHeight, validation.NilOrNotEmpty, validation.Min(0.1), validation.Max(10.0)),
		validation.Field(&p.TextAlign, validation.NilOrNotEmpty, validation.In(textAligns...)),
		validation.Field(&p.VerticalAlign, validation.NilOrNotEmpty, validation.In(verticalAligns...)),
		validation.Field(&p.TransitionType, validation.NilOrNotEmpty, validation.In(transitionTypes...)),
		validation.Field(&p.TransitionDuration, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// Apply merges the patch into settings.
func (p SettingsPatch) Apply(s *models.Settings) {
	if p.DefaultFontFamily != nil {
		s.DefaultFontFamily = *p.DefaultFontFamily
	}
	if p.DefaultFontSizePx != nil {
		s.DefaultFontSizePx = *p.DefaultFontSizePx
	}
	if p.LineHeight != nil {
		s.LineHeight = *p.LineHeight
	}
	if p.TextAlign != nil {
		s.TextAlign = *p.TextAlign
	}
	if p.VerticalAlign != nil {
		s.VerticalAlign = *p.VerticalAlign
	}
	if p.Markdown != nil {
		s.Markdown = *p.Markdown
	}
	if p.TransitionType != nil {
		s.TransitionType = *p.TransitionType
	}
	if p.TransitionDuration != nil {
		s.TransitionDuration = *p.TransitionDuration
	}
}

// PlaylistPatch carries the playlist options an update changes
type PlaylistPatch struct {
	Mode          *string `json:"mode,omitempty"`
	Loop          *bool   `json:"loop,omitempty"`
	AutoAdvanceMs *int    `json:"autoAdvanceMs,omitempty"`
}

// Validate checks the provided fields.
func (p PlaylistPatch) Validate() error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Mode, validation.NilOrNotEmpty, validation.In(playlistModes...)),
		validation.Field(&p.AutoAdvanceMs, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// Apply merges the patch into the playlist options.
func (p PlaylistPatch) Apply(o *models.PlaylistOptions) {
	if p.Mode != nil {
		o.Mode = *p.Mode
	}
	if p.Loop != nil {
		o.Loop = *p.Loop
	}
	if p.AutoAdvanceMs != nil {
		o.AutoAdvanceMs = *p.AutoAdvanceMs
	}
}
