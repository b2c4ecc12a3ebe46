package cmd

import (
	"context"
	"fmt"

	tgscreenshots "github.com/QuentinWidlocher/tg-screenshots"
	"github.com/spf13/cobra"
)

func newDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the configuration before running",
		Long: `Check that tgscreenshots can run with the current configuration.

Verifies: BOT_TOKEN, chat id, watched directory, thread name file (when
set) and the ledger. With --online, also authenticates the bot against
the Telegram Bot API.`,
		Example: `  # Check the configuration
  tgscreenshots doctor

  # Include a Telegram round-trip, machine-readable
  tgscreenshots doctor --online -o json`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}

	addConfigFlags(cmd.Flags())
	cmd.Flags().Bool("online", false, "Also authenticate against the Telegram Bot API")

	return cmd
}

func runDoctor(cmd *cobra.Command, args []string) error {
	outputFmt, _ := cmd.Flags().GetString("output")
	online, _ := cmd.Flags().GetBool("online")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var probe tgscreenshots.BotProbe
	if online {
		probe = func(context.Context) (string, error) {
			c, err := tgscreenshots.NewTelegramClient(cfg.BotToken, cfg.APIEndpoint)
			if err != nil {
				return "", err
			}
			return c.Username(), nil
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	checks := tgscreenshots.RunDoctor(ctx, cfg, probe)
	passed := tgscreenshots.DoctorPassed(checks)

	if outputFmt == "json" {
		out, err := tgscreenshots.FormatDoctorJSON(checks)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		if !passed {
			return fmt.Errorf("some required checks failed")
		}
		return nil
	}

	// text output
	w := cmd.ErrOrStderr()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s╔══════════════════════════════════════════════╗%s\n", tgscreenshots.ColorCyan, tgscreenshots.ColorReset)
	fmt.Fprintf(w, "%s║          tgscreenshots doctor                ║%s\n", tgscreenshots.ColorCyan, tgscreenshots.ColorReset)
	fmt.Fprintf(w, "%s╚══════════════════════════════════════════════╝%s\n", tgscreenshots.ColorCyan, tgscreenshots.ColorReset)
	fmt.Fprintln(w)

	for _, c := range checks {
		if c.OK {
			fmt.Fprintf(w, "  %s✓%s  %-16s %s\n", tgscreenshots.ColorGreen, tgscreenshots.ColorReset, c.Name, c.Detail)
			continue
		}
		color := tgscreenshots.ColorRed
		if !c.Required {
			color = tgscreenshots.ColorYellow
		}
		fmt.Fprintf(w, "  %s✗%s  %-16s %s\n", color, tgscreenshots.ColorReset, c.Name, c.Detail)
	}
	fmt.Fprintln(w)

	if !passed {
		return fmt.Errorf("some required checks failed. Fix them and try again")
	}
	fmt.Fprintln(w, "All checks passed.")
	return nil
}
