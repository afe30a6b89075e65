package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"obs-text-slides/internal/models"
	"obs-text-slides/internal/services"
)

// HotkeyHandler accepts hotkey bridge commands over HTTP
type HotkeyHandler struct {
	hotkeys *services.HotkeyService
	logger  *slog.Logger
}

// NewHotkeyHandler creates a new hotkey handler
func NewHotkeyHandler(hotkeys *services.HotkeyService, logger *slog.Logger) *HotkeyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HotkeyHandler{hotkeys: hotkeys, logger: logger}
}

// HotkeyResponse represents the response to a hotkey command
type HotkeyResponse struct {
	Success bool   `json:"success"`
	Applied bool   `json:"applied"` // false when seq was not newer than the last applied one
	Message string `json:"message"`
	LastSeq int64  `json:"lastSeq"`
}

// ApplyHotkey applies a {seq, command} object
// POST /api/hotkey
func (h *HotkeyHandler) ApplyHotkey(w http.ResponseWriter, r *http.Request) {
	var cmd models.HotkeyCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid hotkey command: "+err.Error(), http.StatusBadRequest)
		return
	}

	applied, err := h.hotkeys.Apply(r.Context(), cmd)
	if err != nil {
		h.logger.Error("hotkey command failed", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := HotkeyResponse{
		Success: true,
		Applied: applied,
		Message: "Hotkey applied",
		LastSeq: h.hotkeys.LastSeq(),
	}
	if !applied {
		response.Message = "Stale sequence number ignored"
	}
	writeJSON(w, http.StatusOK, response)
}
