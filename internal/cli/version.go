package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/hsck/internal/version"
)

// NewVersionCommand prints build information.
func NewVersionCommand() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show hsck version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			writer := cmd.OutOrStdout()

			switch outputFormat {
			case "json":
				encoder := json.NewEncoder(writer)
				encoder.SetIndent("", "  ")
				return encoder.Encode(info)
			case "":
				_, _ = fmt.Fprintf(writer, "hsck %s (commit: %s, built: %s, default mode: %s)\n",
					info.Version, info.Commit, info.BuildDate, info.DefaultMode)
				return nil
			default:
				return fmt.Errorf("unknown output format %q (want json)", outputFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json")

	return cmd
}
