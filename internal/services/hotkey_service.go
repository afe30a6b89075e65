package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"obs-text-slides/internal/fsutil"
	"obs-text-slides/internal/models"
)

// hotkeyGlobal is the variable the generated hotkey script assigns.
const hotkeyGlobal = "window.__obsTextSlidesHotkey"

// Navigator moves the active slide; PlaylistStore implements it.
type Navigator interface {
	SetActiveSlide(ctx context.Context, index int, reason string) (bool, error)
	Next(ctx context.Context, reason string) (bool, error)
	Prev(ctx context.Context, reason string) (bool, error)
}

// HotkeyService applies commands from the hotkey bridge
type HotkeyService struct {
	nav      Navigator
	filePath string
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	lastSeq int64
}

// NewHotkeyService creates a service polling filePath every interval.
func NewHotkeyService(nav Navigator, filePath string, interval time.Duration, logger *slog.Logger) *HotkeyService {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HotkeyService{
		nav:      nav,
		filePath: filePath,
		interval: interval,
		logger:   logger,
	}
}

// LastSeq returns the sequence number of the last applied command.
func (hs *HotkeyService) LastSeq() int64 {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return hs.lastSeq
}

// Apply executes cmd unless its seq is not newer than the last applied one.
// It reports whether the command was accepted.
func (hs *HotkeyService) Apply(ctx context.Context, cmd models.HotkeyCommand) (bool, error) {
	hs.mu.Lock()
	if cmd.Seq <= hs.lastSeq {
		hs.mu.Unlock()
		return false, nil
	}
	hs.lastSeq = cmd.Seq
	hs.mu.Unlock()

	var err error
	switch {
	case cmd.Command.IsJump():
		_, err = hs.nav.SetActiveSlide(ctx, cmd.Command.Index, "lua-jump")
	case cmd.Command.Verb == models.HotkeyNext:
		_, err = hs.nav.Next(ctx, "lua-next")
	case cmd.Command.Verb == models.HotkeyPrev:
		_, err = hs.nav.Prev(ctx, "lua-prev")
	}
	if err != nil {
		return true, fmt.Errorf("failed to apply hotkey %s: %w", cmd.Command, err)
	}

	hs.logger.Debug("hotkey applied", slog.Int64("seq", cmd.Seq), slog.String("command", cmd.Command.String()))
	return true, nil
}

// Prime records the command currently in the file as already applied so a
// restart does not replay it.
func (hs *HotkeyService) Prime() {
	cmd, ok, err := ReadCommandFile(hs.filePath)
	if err != nil || !ok {
		return
	}
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if cmd.Seq > hs.lastSeq {
		hs.lastSeq = cmd.Seq
	}
}

// Run polls the command file until ctx is done. Missing or unreadable files
// are skipped until the next tick.
func (hs *HotkeyService) Run(ctx context.Context) {
	ticker := time.NewTicker(hs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hs.poll(ctx)
		}
	}
}

func (hs *HotkeyService) poll(ctx context.Context) {
	cmd, ok, err := ReadCommandFile(hs.filePath)
	if err != nil {
		hs.logger.Debug("hotkey file unreadable", slog.String("path", hs.filePath), slog.String("error", err.Error()))
		return
	}
	if !ok {
		return
	}
	if _, err := hs.Apply(ctx, cmd); err != nil {
		hs.logger.Error("hotkey failed", slog.String("error", err.Error()))
	}
}

// ReadCommandFile reads a pending command from path. A missing or empty file
// yields ok == false with no error.
func ReadCommandFile(path string) (models.HotkeyCommand, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return models.HotkeyCommand{}, false, nil
	}
	if err != nil {
		return models.HotkeyCommand{}, false, fmt.Errorf("failed to read hotkey file: %w", err)
	}
	return ParseCommand(data)
}

// ParseCommand accepts either a JSON object or the generated script form
// `window.__obsTextSlidesHotkey = {...};`.
func ParseCommand(data []byte) (models.HotkeyCommand, bool, error) {
	data = bytes.TrimSpace(data)
	start := bytes.IndexByte(data, '{')
	end := bytes.LastIndexByte(data, '}')
	if start < 0 || end < start {
		return models.HotkeyCommand{}, false, nil
	}

	var cmd models.HotkeyCommand
	if err := json.Unmarshal(data[start:end+1], &cmd); err != nil {
		return models.HotkeyCommand{}, false, fmt.Errorf("failed to parse hotkey command: %w", err)
	}
	return cmd, true, nil
}

// WriteCommandFile writes target to path in script form with a sequence
// number one above the file's current one. When the current file cannot be
// parsed its seq is unknown, so the new one is taken from the wall clock in
// milliseconds, which stays above any counter the dock has applied.
func WriteCommandFile(path string, target models.HotkeyTarget) (models.HotkeyCommand, error) {
	seq := int64(1)
	previous, _, err := ReadCommandFile(path)
	if err != nil {
		seq = time.Now().UnixMilli()
	} else if previous.Seq+1 > seq {
		seq = previous.Seq + 1
	}
	cmd := models.HotkeyCommand{Seq: seq, Command: target}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return models.HotkeyCommand{}, fmt.Errorf("failed to marshal hotkey command: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return models.HotkeyCommand{}, fmt.Errorf("failed to create hotkey directory: %w", err)
	}

	script := fmt.Sprintf("%s = %s;\n", hotkeyGlobal, payload)
	if err := fsutil.WriteFileAtomic(path, []byte(script)); err != nil {
		return models.HotkeyCommand{}, err
	}
	return cmd, nil
}
