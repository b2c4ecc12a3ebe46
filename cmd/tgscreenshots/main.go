package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/QuentinWidlocher/tg-screenshots/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.NewRootCommand()

	// `tgscreenshots [flags] [directory]` is shorthand for `run`.
	args := os.Args[1:]
	if cmd.NeedsDefaultRun(rootCmd, args) {
		args = append([]string{"run"}, args...)
	}
	rootCmd.SetArgs(args)

	if code := cmd.ExitCode(rootCmd.ExecuteContext(ctx)); code != 0 {
		stop()
		os.Exit(code)
	}
}
