package cli

import (
	"fmt"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"obs-text-slides/internal/config"
	"obs-text-slides/internal/display"
	"obs-text-slides/internal/markdown"
	"obs-text-slides/internal/transport"
)

type overlayOptions struct {
	mode      string
	serverURL string
	statePath string
	outFile   string
	debug     bool
	refresh   time.Duration
}

func NewOverlayCmd(deps *Dependencies) *cobra.Command {
	var opts overlayOptions

	cmd := &cobra.Command{
		Use:   "overlay",
		Short: "Run the display surface",
		Long: "Follow the dock over the broadcast bus (--mode channel) or by polling the published snapshot (--mode json)\n" +
			"and render the active slide to an HTML page or to the log.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ov := &deps.Config.Overlay
			if cmd.Flags().Changed("mode") {
				ov.Mode = opts.mode
			}
			if opts.serverURL != "" {
				ov.ServerURL = opts.serverURL
			}
			if opts.statePath != "" {
				ov.StatePath = opts.statePath
			}
			if opts.outFile != "" {
				ov.OutFile = opts.outFile
			}
			if opts.debug {
				ov.Debug = true
			}
			if err := deps.Config.Validate(); err != nil {
				return err
			}

			sub, err := newSubscriber(deps.Config, deps)
			if err != nil {
				return err
			}

			logger := deps.Logger.WithComponent("overlay").Logger
			var renderer display.Renderer = display.NewLogRenderer(logger)
			if ov.OutFile != "" {
				page, err := display.NewPageRenderer(ov.OutFile, logger)
				if err != nil {
					return err
				}
				page.Debug = ov.Debug
				page.Refresh = opts.refresh
				renderer = page
			}

			cache, err := markdown.NewCache(markdown.DefaultCacheSize)
			if err != nil {
				return err
			}
			reconciler := display.NewReconciler(renderer, cache, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger.Info("overlay started", "mode", ov.Mode, "server", ov.ServerURL, "out", ov.OutFile)
			err = reconciler.Run(ctx, sub)
			logger.Info("overlay stopped", "state", reconciler.Debug())
			return err
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", config.ModeChannel, "Transport: channel (bus) or json (poll the snapshot)")
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "Dock base URL")
	cmd.Flags().StringVar(&opts.statePath, "state-path", "", "Snapshot path or URL for json mode")
	cmd.Flags().StringVarP(&opts.outFile, "out", "o", "", "Write the overlay page to this file")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Show the state badge on the page")
	cmd.Flags().DurationVar(&opts.refresh, "refresh", 0, "Make the page reload itself at this interval")

	return cmd
}

// newSubscriber builds the configured transport. In channel mode the poller
// is kept as the bus client's fallback for docks without a bus endpoint.
func newSubscriber(cfg *config.Config, deps *Dependencies) (transport.Subscriber, error) {
	ov := cfg.Overlay
	stateURL, err := resolveStateURL(ov.ServerURL, ov.StatePath)
	if err != nil {
		return nil, err
	}
	poller, err := transport.NewPoller(stateURL, cfg.OverlayPollInterval(), nil)
	if err != nil {
		return nil, err
	}
	if ov.Mode == config.ModeJSON {
		return poller, nil
	}

	client, err := transport.NewBusClient(ov.ServerURL, deps.Logger.WithComponent("bus").Logger)
	if err != nil {
		return nil, err
	}
	client.Fallback = poller
	return client, nil
}

// resolveStateURL joins a relative snapshot path onto the dock URL; absolute
// URLs are used as given.
func resolveStateURL(serverURL, statePath string) (string, error) {
	if strings.HasPrefix(statePath, "http://") || strings.HasPrefix(statePath, "https://") {
		return statePath, nil
	}
	base, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", serverURL, err)
	}
	ref, err := url.Parse(statePath)
	if err != nil {
		return "", fmt.Errorf("invalid state path %q: %w", statePath, err)
	}
	return base.ResolveReference(ref).String(), nil
}
