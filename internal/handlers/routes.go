package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// RouteOptions configures SetupRoutes
type RouteOptions struct {
	// SnapshotPath is where the published state document is served.
	SnapshotPath string
	CORS         bool
	Logger       *slog.Logger
}

// SetupRoutes wires every dock endpoint onto a router
func SetupRoutes(playlist *PlaylistHandler, hotkey *HotkeyHandler, ws *WebSocketHandler, static *StaticHandler, opts RouteOptions) http.Handler {
	if opts.SnapshotPath == "" {
		opts.SnapshotPath = "/data/slides.state.json"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", playlist.GetState).Methods(http.MethodGet)
	api.HandleFunc("/slides", playlist.AddSlides).Methods(http.MethodPost)
	api.HandleFunc("/slides", playlist.ClearSlides).Methods(http.MethodDelete)
	api.HandleFunc("/slides/reorder", playlist.ReorderSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides/active", playlist.SetActiveSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides/next", playlist.NextSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides/prev", playlist.PrevSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides/{index:[0-9]+}", playlist.DeleteSlide).Methods(http.MethodDelete)
	api.HandleFunc("/settings", playlist.UpdateSettings).Methods(http.MethodPatch)
	api.HandleFunc("/playlist", playlist.UpdatePlaylist).Methods(http.MethodPatch)
	api.HandleFunc("/preview", playlist.Preview).Methods(http.MethodPost)
	api.HandleFunc("/log", playlist.GetLog).Methods(http.MethodGet)
	api.HandleFunc("/hotkey", hotkey.ApplyHotkey).Methods(http.MethodPost)

	router.HandleFunc("/ws", ws.HandleWebSocket).Methods(http.MethodGet)
	router.HandleFunc(opts.SnapshotPath, static.ServeSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/healthz", static.Health).Methods(http.MethodGet)

	var handler http.Handler = router
	if opts.CORS {
		handler = corsMiddleware(handler)
	}
	return logMiddleware(handler, opts.Logger)
}
