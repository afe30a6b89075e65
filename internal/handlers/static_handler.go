package handlers

import (
	"net/http"

	"obs-text-slides/internal/services"
)

// StaticHandler serves the published snapshot and liveness probe
type StaticHandler struct {
	snapshot *services.SnapshotFile
	hub      *services.WebSocketService
}

// NewStaticHandler creates a new static handler
func NewStaticHandler(snapshot *services.SnapshotFile, hub *services.WebSocketService) *StaticHandler {
	return &StaticHandler{snapshot: snapshot, hub: hub}
}

// HealthResponse reports liveness
type HealthResponse struct {
	Status     string `json:"status"`
	BusClients int    `json:"busClients"`
}

// ServeSnapshot returns the last published state document
// GET /data/slides.state.json
func (h *StaticHandler) ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.snapshot.Read()
	if err != nil {
		http.Error(w, "Snapshot not published yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// Health reports that the server is up
// GET /healthz
func (h *StaticHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", BusClients: h.hub.ClientCount()})
}
