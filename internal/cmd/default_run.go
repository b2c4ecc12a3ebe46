package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NeedsDefaultRun reports whether args should get "run" prepended, so
// that `tgscreenshots`, `tgscreenshots ~/Screenshots` and
// `tgscreenshots -c -1001 ~/Screenshots` all start the watcher while
// `tgscreenshots history` still reaches its subcommand.
func NeedsDefaultRun(rootCmd *cobra.Command, args []string) bool {
	if exitsEarly(args) {
		return false
	}
	word, ok := firstWord(rootCmd.PersistentFlags(), args)
	if !ok {
		// Empty, root flags only, or a flag only run knows.
		return true
	}
	return !isSubcommand(rootCmd, word)
}

// exitsEarly reports whether cobra handles args on the root itself
// (--help or --version) before "--".
func exitsEarly(args []string) bool {
	for _, a := range args {
		switch a {
		case "--":
			return false
		case "--help", "-h", "--version":
			return true
		}
	}
	return false
}

// firstWord returns the first positional argument, skipping root
// persistent flags and their values. It stops with ok false at the first
// flag the root does not define, since that flag belongs to run.
func firstWord(root *pflag.FlagSet, args []string) (string, bool) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") || a == "-" {
			return a, true
		}
		name := strings.TrimLeft(a, "-")
		hasValue := false
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, hasValue = name[:eq], true
		}

		var f *pflag.Flag
		if strings.HasPrefix(a, "--") {
			f = root.Lookup(name)
		} else if len(name) == 1 {
			f = root.ShorthandLookup(name)
		}
		if f == nil {
			return "", false
		}
		// Flags with NoOptDefVal (bools) never consume the next arg.
		if !hasValue && f.NoOptDefVal == "" {
			i++
		}
	}
	return "", false
}

func isSubcommand(rootCmd *cobra.Command, name string) bool {
	for _, c := range rootCmd.Commands() {
		if c.Name() == name || c.HasAlias(name) {
			return true
		}
	}
	return false
}
