package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const releaseSlug = "QuentinWidlocher/tg-screenshots"

func newUpdateCommand() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Self-update tgscreenshots to the latest release",
		Long: `Self-update tgscreenshots to the latest GitHub release.

The release archive is checked against checksums.txt before the running
binary is replaced. Use --check to only report whether a newer release
exists.`,
		Example: `  # Check for updates
  tgscreenshots update --check

  # Update to the latest version
  tgscreenshots update`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return selfUpdate(ctx, cmd.OutOrStdout(), checkOnly)
		},
	}

	cmd.Flags().BoolVarP(&checkOnly, "check", "C", false, "Check for updates without installing")

	return cmd
}

func selfUpdate(ctx context.Context, w io.Writer, checkOnly bool) error {
	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
	})
	if err != nil {
		return fmt.Errorf("create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(releaseSlug))
	if err != nil {
		return fmt.Errorf("detect latest release: %w", err)
	}
	if !found {
		fmt.Fprintln(w, "No release found.")
		return nil
	}

	current, ok := currentVersion()
	if !ok {
		fmt.Fprintf(w, "Development build (%q), not comparing. Latest release: v%s\n", Version, latest.Version())
		return nil
	}
	if latest.LessOrEqual(current.String()) {
		fmt.Fprintf(w, "Already up to date (v%s).\n", current)
		return nil
	}
	if checkOnly {
		fmt.Fprintf(w, "Update available: v%s -> v%s\n", current, latest.Version())
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	fmt.Fprintf(w, "Updated to v%s\n", latest.Version())
	return nil
}

// currentVersion parses Version. Local builds carry "dev" and do not parse.
func currentVersion() (*semver.Version, bool) {
	v, err := semver.NewVersion(strings.TrimPrefix(Version, "v"))
	if err != nil {
		return nil, false
	}
	return v, true
}
