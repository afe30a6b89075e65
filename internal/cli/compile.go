package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"obs-text-slides/internal/markdown"
)

func NewCompileCmd(deps *Dependencies) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile slide markdown to HTML",
		Long:  "Compile a markdown file (or stdin) with the same compiler the overlay uses and print the HTML.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(deps.Stdin, args)
			if err != nil {
				return err
			}

			html := markdown.Compile(source)
			if plain {
				html = markdown.Plain(source)
			}
			_, err = fmt.Fprintln(deps.Stdout, html)
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Render as plain text paragraphs")

	return cmd
}

func readSource(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
