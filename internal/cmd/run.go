package cmd

import (
	"context"
	"fmt"
	"time"

	tgscreenshots "github.com/QuentinWidlocher/tg-screenshots"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [directory]",
		Short: "Watch a directory and send new screenshots",
		Long: `Watch a directory tree and send every new screenshot to a Telegram chat.

At startup, screenshots already in the directory that the ledger does
not know are sent first (disable with --no-initial-scan). The bot token
is read from BOT_TOKEN, or from a .env file in the working directory.`,
		Example: `  # Watch ~/Pictures/Screenshots and send to a chat
  BOT_TOKEN=123:abc tgscreenshots run -c -1001234567890 ~/Pictures/Screenshots

  # Send the originals too, into the topic named in ./topic.txt
  tgscreenshots run -c -1001234567890 --send-as-document --thread-name-file topic.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWatch,
	}

	addConfigFlags(cmd.Flags())

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Directory = args[0]
	}

	if cfg.LogFile != "" {
		if err := tgscreenshots.InitLogFile(cfg.LogFile); err != nil {
			tgscreenshots.LogWarn("log file: %v", err)
		}
		defer tgscreenshots.CloseLogFile()
	}

	shutdownTelemetry := tgscreenshots.InitTelemetry("tgscreenshots", Version)
	defer flushTelemetry(shutdownTelemetry)

	client, err := tgscreenshots.NewTelegramClient(cfg.BotToken, cfg.APIEndpoint)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	ledger, err := tgscreenshots.OpenLedger(cfg.DBPath)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	defer ledger.Close()

	notifier, err := tgscreenshots.BuildNotifier(cfg)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	// Use command's context (set by ExecuteContext in main)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stop := context.AfterFunc(ctx, func() {
		tgscreenshots.LogWarn("%s", tgscreenshots.Msg("signal_received"))
	})
	defer stop()

	app := tgscreenshots.NewApp(cfg, ledger, client, client, notifier)
	if err := app.Run(ctx); err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("watch %s: %w", cfg.Directory, err)}
	}
	return nil
}

// flushTelemetry gives the exporters a bounded time to flush. A failure
// only costs telemetry, so it is logged and not returned.
func flushTelemetry(shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		tgscreenshots.LogWarn("telemetry shutdown: %v", err)
	}
}
