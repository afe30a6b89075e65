package display

import (
	"context"
	"log/slog"
	"time"
)

// LogRenderer reports frames as structured log records. It is the headless
// renderer used when no output page is configured.
type LogRenderer struct {
	logger *slog.Logger
}

// NewLogRenderer creates a renderer logging to logger.
func NewLogRenderer(logger *slog.Logger) *LogRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRenderer{logger: logger}
}

func (r *LogRenderer) Render(frame Frame) {
	r.logger.Info("render",
		slog.String("slide", frame.SlideID),
		slog.Int("position", frame.Index+1),
		slog.Int("total", frame.Total),
		slog.String("transition", frame.Transition.Type),
		slog.Int("transitionMs", frame.Transition.DurationMs),
		slog.String("fontFamily", frame.Typography.FontFamily),
		slog.Float64("fontSizePx", frame.Typography.FontSizePx),
		slog.String("markup", frame.Markup),
	)
}

func (r *LogRenderer) Placeholder(status Status, message string) {
	level := slog.LevelInfo
	if status == StatusError {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, message, slog.String("status", string(status)))
}

func (r *LogRenderer) StartCountdown(d time.Duration) {
	r.logger.Info("countdown started", slog.Duration("duration", d))
}

func (r *LogRenderer) ClearCountdown() {
	r.logger.Debug("countdown cleared")
}
