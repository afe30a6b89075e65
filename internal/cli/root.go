package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"obs-text-slides/internal/config"
	"obs-text-slides/internal/logging"
	"obs-text-slides/internal/version"
)

// Dependencies are shared by every subcommand. Config and Logger are filled
// in before any subcommand runs.
type Dependencies struct {
	ConfigPath string
	LogLevel   string
	Config     *config.Config
	Logger     *logging.Logger
	Stdin      io.Reader
	Stdout     io.Writer
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}

	rootCmd := &cobra.Command{
		Use:           "slides",
		Short:         "Text slides for OBS",
		Long:          "Author markdown text slides in a dock and show them in OBS through a synchronized overlay.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(deps.ConfigPath)
			if err != nil {
				return err
			}
			if deps.LogLevel != "" {
				cfg.Log.Level = deps.LogLevel
			}
			deps.Config = cfg
			deps.Logger = logging.Init(cfg.Log)
			return nil
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.SetIn(deps.Stdin)
	rootCmd.SetOut(deps.Stdout)

	rootCmd.PersistentFlags().StringVar(&deps.ConfigPath, "config", "", "Path to config.toml")
	rootCmd.PersistentFlags().StringVar(&deps.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(NewServeCmd(deps))
	rootCmd.AddCommand(NewOverlayCmd(deps))
	rootCmd.AddCommand(NewCompileCmd(deps))
	rootCmd.AddCommand(NewHotkeyCmd(deps))

	return rootCmd
}
