package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"obs-text-slides/internal/db"
	"obs-text-slides/internal/handlers"
	"obs-text-slides/internal/markdown"
	"obs-text-slides/internal/services"
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dock server",
		Long:  "Run the dock: owns the playlist, serves the control API, hosts the broadcast bus and publishes the state snapshot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				host, port, err := splitAddr(addr)
				if err != nil {
					return err
				}
				deps.Config.Server.Host, deps.Config.Server.Port = host, port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, deps)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (host:port), overrides server.host and server.port")

	return cmd
}

func runServe(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config
	logger := deps.Logger

	database, err := db.InitDatabase(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	kv := services.NewKVStore(database, cfg.Storage.StateKey, logger.WithComponent("kv").Logger)
	store := services.NewPlaylistStore(kv.LoadState(ctx),
		services.WithLogger(logger.WithComponent("store").Logger))

	snapshot, err := services.NewSnapshotFile(cfg.StateFilePath())
	if err != nil {
		return err
	}
	hub := services.NewWebSocketService(logger.WithComponent("bus").Logger)
	hub.SetStateProvider(store.Snapshot)
	autoplay := services.NewAutoplay(store, logger.WithComponent("autoplay").Logger)
	defer autoplay.Stop()

	store.AddObserver(kv)
	store.AddObserver(snapshot)
	store.AddObserver(hub)
	store.AddObserver(autoplay)

	// Pollers need a document before the first edit.
	if err := snapshot.StateCommitted(ctx, store.Snapshot()); err != nil {
		return err
	}

	hotkeys := services.NewHotkeyService(store, cfg.HotkeyFilePath(), cfg.HotkeyPollInterval(),
		logger.WithComponent("hotkeys").Logger)
	hotkeys.Prime()

	cache, err := markdown.NewCache(markdown.DefaultCacheSize)
	if err != nil {
		return err
	}

	go hub.Run(ctx)
	go hotkeys.Run(ctx)
	autoplay.Start(store.Snapshot())

	router := handlers.SetupRoutes(
		handlers.NewPlaylistHandler(store, cache, logger.Logger),
		handlers.NewHotkeyHandler(hotkeys, logger.Logger),
		handlers.NewWebSocketHandler(hub, logger.Logger),
		handlers.NewStaticHandler(snapshot, hub),
		handlers.RouteOptions{
			SnapshotPath: path.Join("/data", filepath.Base(cfg.StateFilePath())),
			CORS:         cfg.Server.CORS,
			Logger:       logger.WithComponent("http").Logger,
		},
	)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLS.Enabled {
			server.TLSConfig = &tls.Config{
				MinVersion: getTLSVersion(cfg.TLS.MinVersion),
			}
			logger.Info("starting HTTPS server",
				"addr", cfg.Addr(),
				"cert", cfg.TLS.CertFile,
				"minVersion", cfg.TLS.MinVersion)
			errCh <- server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
			return
		}
		logger.Info("starting HTTP server", "addr", cfg.Addr(), "slides", len(store.Snapshot().Slides))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// getTLSVersion converts string version to tls.Version constant
func getTLSVersion(version string) uint16 {
	switch version {
	case "1.0":
		return tls.VersionTLS10
	case "1.1":
		return tls.VersionTLS11
	case "1.2":
		return tls.VersionTLS12
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

func splitAddr(addr string) (string, string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", "", fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	return host, port, nil
}
