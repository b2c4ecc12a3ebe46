// Command docgen writes the CLI reference for tgscreenshots.
//
//	go run ./internal/tools/docgen [dir] [markdown|man]
package main

import (
	"fmt"
	"os"

	"github.com/QuentinWidlocher/tg-screenshots/internal/cmd"
	"github.com/spf13/cobra/doc"
)

func main() {
	dir := "docs/cli"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	format := "markdown"
	if len(os.Args) > 2 {
		format = os.Args[2]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", dir, err)
		os.Exit(1)
	}

	rootCmd := cmd.NewRootCommand()
	rootCmd.DisableAutoGenTag = true

	var err error
	switch format {
	case "markdown":
		err = doc.GenMarkdownTree(rootCmd, dir)
	case "man":
		err = doc.GenManTree(rootCmd, &doc.GenManHeader{Title: "TGSCREENSHOTS", Section: "1"}, dir)
	default:
		err = fmt.Errorf("unknown format %q (want markdown or man)", format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "docgen: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Generated CLI %s docs in %s/\n", format, dir)
}
