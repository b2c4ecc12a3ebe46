package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	tgscreenshots "github.com/QuentinWidlocher/tg-screenshots"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file",
		Long: `Write a tgscreenshots.yaml config file in the working directory
(or at --config) from the defaults and the given flags.

Secrets are never written: BOT_TOKEN and DISCORD_BOT_TOKEN stay in the
environment or in .env.`,
		Example: `  # Create tgscreenshots.yaml for a chat
  tgscreenshots init -c -1001234567890 -d ~/Pictures/Screenshots

  # Then just run
  tgscreenshots`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	path, _ := configPath(cmd)
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	// Only defaults and flags: the environment may hold values that
	// belong to this shell, not to the file.
	cfg := tgscreenshots.DefaultConfig()
	applyFlags(cmd, &cfg)
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if err := tgscreenshots.SaveConfigFile(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s✓%s Wrote %s\n", tgscreenshots.ColorGreen, tgscreenshots.ColorReset, path)
	if cfg.ChatID == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "  No chat id yet: run the bot and add it to a chat to get one.")
	}
	return nil
}
