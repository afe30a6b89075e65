package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"obs-text-slides/internal/markdown"
	"obs-text-slides/internal/models"
	"obs-text-slides/internal/services"
)

// PlaylistHandler handles HTTP requests that read or mutate the playlist
type PlaylistHandler struct {
	store  *services.PlaylistStore
	cache  *markdown.Cache
	logger *slog.Logger
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(store *services.PlaylistStore, cache *markdown.Cache, logger *slog.Logger) *PlaylistHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistHandler{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// AddSlidesRequest carries delimiter-separated slide text
type AddSlidesRequest struct {
	Text string `json:"text"`
}

// ReorderRequest moves the slide at From to position To
type ReorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// SetActiveRequest selects a slide
type SetActiveRequest struct {
	Index  int    `json:"index"`
	Reason string `json:"reason,omitempty"`
}

// PreviewRequest carries markdown to compile
type PreviewRequest struct {
	Markdown string `json:"markdown"`
	Plain    bool   `json:"plain,omitempty"`
}

// PreviewResponse carries compiled markup
type PreviewResponse struct {
	HTML string `json:"html"`
}

// MutationResponse reports the outcome of a playlist change
type MutationResponse struct {
	Success bool                 `json:"success"`
	Changed bool                 `json:"changed"`
	Count   int                  `json:"count,omitempty"`
	State   models.PlaylistState `json:"state"`
}

// GetState returns the current playlist state
// GET /api/state
func (h *PlaylistHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// AddSlides appends slides parsed from text
// POST /api/slides
func (h *PlaylistHandler) AddSlides(w http.ResponseWriter, r *http.Request) {
	var req AddSlidesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	n, err := h.store.AddSlides(r.Context(), req.Text)
	h.respond(w, n > 0, n, err)
}

// ClearSlides removes every slide
// DELETE /api/slides
func (h *PlaylistHandler) ClearSlides(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.ClearAllSlides(r.Context())
	h.respond(w, n > 0, n, err)
}

// DeleteSlide removes one slide
// DELETE /api/slides/{index}
func (h *PlaylistHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "Slide index must be a number", http.StatusBadRequest)
		return
	}

	changed, err := h.store.DeleteSlide(r.Context(), index)
	h.respond(w, changed, 0, err)
}

// ReorderSlide moves a slide
// POST /api/slides/reorder
func (h *PlaylistHandler) ReorderSlide(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	changed, err := h.store.ReorderSlide(r.Context(), req.From, req.To)
	h.respond(w, changed, 0, err)
}

// SetActiveSlide selects the active slide
// POST /api/slides/active
func (h *PlaylistHandler) SetActiveSlide(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	changed, err := h.store.SetActiveSlide(r.Context(), req.Index, req.Reason)
	h.respond(w, changed, 0, err)
}

// NextSlide advances the active slide
// POST /api/slides/next
func (h *PlaylistHandler) NextSlide(w http.ResponseWriter, r *http.Request) {
	changed, err := h.store.Next(r.Context(), "next")
	h.respond(w, changed, 0, err)
}

// PrevSlide moves the active slide back
// POST /api/slides/prev
func (h *PlaylistHandler) PrevSlide(w http.ResponseWriter, r *http.Request) {
	changed, err := h.store.Prev(r.Context(), "prev")
	h.respond(w, changed, 0, err)
}

// UpdateSettings applies a partial settings update
// PATCH /api/settings
func (h *PlaylistHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch services.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	err := h.store.UpdateSettings(r.Context(), patch, "settings")
	h.respond(w, err == nil, 0, err)
}

// UpdatePlaylist applies a partial playlist options update
// PATCH /api/playlist
func (h *PlaylistHandler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var patch services.PlaylistPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	err := h.store.UpdatePlaylist(r.Context(), patch, "playlist")
	h.respond(w, err == nil, 0, err)
}

// Preview compiles markdown the way the overlay will
// POST /api/preview
func (h *PlaylistHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, PreviewResponse{HTML: h.cache.Render(req.Markdown, !req.Plain)})
}

// GetLog returns the status log, newest first
// GET /api/log
func (h *PlaylistHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.StatusLog().Entries())
}

func (h *PlaylistHandler) respond(w http.ResponseWriter, changed bool, count int, err error) {
	if err != nil {
		if errors.Is(err, services.ErrInvalidSettings) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("playlist update failed", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, MutationResponse{
		Success: true,
		Changed: changed,
		Count:   count,
		State:   h.store.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
