package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	tgscreenshots "github.com/QuentinWidlocher/tg-screenshots"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List what the ledger recorded",
		Long: `List the messages recorded in the ledger, newest first.

Each line is one transmitted message: a screenshot sent both as photo
and as document shows up twice with the same hash. Use --threads to
list the known forum topics instead.`,
		Example: `  # Last sends
  tgscreenshots history --limit 20

  # Known topics, as JSON
  tgscreenshots history --threads -o json`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().String("db", tgscreenshots.DefaultConfig().DBPath, "Path of the SQLite ledger")
	cmd.Flags().Bool("threads", false, "List forum topics instead of messages")
	cmd.Flags().IntP("limit", "n", 0, "Show at most this many entries (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	outputFmt, _ := cmd.Flags().GetString("output")
	threads, _ := cmd.Flags().GetBool("threads")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.DBPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no ledger at %s", cfg.DBPath)
	}

	ledger, err := tgscreenshots.OpenLedger(cfg.DBPath)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var rows any
	var lines []string
	if threads {
		list, err := ledger.ListThreads(ctx)
		if err != nil {
			return err
		}
		list = truncate(list, limit)
		rows = list
		for _, t := range list {
			lines = append(lines, fmt.Sprintf("%-12d %s", t.ID, t.Name))
		}
	} else {
		list, err := ledger.ListScreenshots(ctx)
		if err != nil {
			return err
		}
		list = truncate(list, limit)
		rows = list
		for _, s := range list {
			lines = append(lines, fmt.Sprintf("%s  %-10d %s", s.SentAt.Local().Format(time.DateTime), s.MessageID, s.Hash))
		}
	}

	if outputFmt == "json" {
		data, err := json.Marshal(rows)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	for _, l := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), l)
	}
	if len(lines) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Nothing recorded yet.")
	}
	return nil
}

func truncate[T any](list []T, limit int) []T {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
