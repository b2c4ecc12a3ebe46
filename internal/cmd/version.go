package cmd

import (
	"fmt"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// Commit and Date are set at build time via -ldflags.
var (
	Commit = "unknown"
	Date   = "unknown"
)

func newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Show the tgscreenshots version, commit and build date set at build time via ldflags.",
		Example: `  # Show version
  tgscreenshots version

  # As JSON
  tgscreenshots version --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				data, err := json.Marshal(map[string]string{
					"version": Version,
					"commit":  Commit,
					"date":    Date,
					"go":      runtime.Version(),
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tgscreenshots %s (commit: %s, date: %s, go: %s)\n",
				Version, Commit, Date, runtime.Version())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}
