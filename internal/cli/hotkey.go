package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"obs-text-slides/internal/models"
	"obs-text-slides/internal/services"
)

func NewHotkeyCmd(deps *Dependencies) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "hotkey next|prev|<index>",
		Short: "Queue a hotkey command for the dock",
		Long:  "Write a command to the hotkey file the dock polls, with a sequence number one above the current one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := models.ParseHotkeyTarget(args[0])
			if err != nil {
				return err
			}
			if file == "" {
				file = deps.Config.HotkeyFilePath()
			}

			written, err := services.WriteCommandFile(file, target)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(deps.Stdout, "queued %s (seq %d) in %s\n", written.Command, written.Seq, file)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Hotkey file (defaults to hotkeys.file in the data dir)")

	return cmd
}
