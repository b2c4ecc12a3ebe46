package cmd

import (
	tgscreenshots "github.com/QuentinWidlocher/tg-screenshots"
	"github.com/spf13/cobra"
)

func init() {
	cobra.EnableTraverseRunHooks = true
}

// NewRootCommand creates and returns the root cobra command for tgscreenshots.
// Exported for testability (SetArgs/SetOut) and docgen.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tgscreenshots",
		Short: "Send new screenshots to a Telegram chat",
		Long: `tgscreenshots watches a directory for new screenshots and posts each
one to a Telegram chat, once. What was sent is kept in a local SQLite
ledger, so restarts only send what is missing.`,
		Version: Version,
		// Silence usage on RunE errors (cobra prints usage by default on error)
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			if lang == "ja" || lang == "en" || lang == "fr" {
				tgscreenshots.Lang = lang
			}
			tgscreenshots.Verbose, _ = cmd.Flags().GetBool("verbose")
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format: text, json")
	rootCmd.PersistentFlags().StringP("lang", "l", "en", "Output language: en, ja, fr")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: "+tgscreenshots.DefaultConfigFile+" if present)")

	rootCmd.AddCommand(
		newRunCommand(),
		newInitCommand(),
		newDoctorCommand(),
		newHistoryCommand(),
		newVersionCommand(),
		newUpdateCommand(),
	)

	return rootCmd
}
