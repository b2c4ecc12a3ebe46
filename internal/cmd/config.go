package cmd

import (
	"fmt"
	"os"

	tgscreenshots "github.com/QuentinWidlocher/tg-screenshots"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addConfigFlags registers the flags that map onto tgscreenshots.Config.
func addConfigFlags(fs *pflag.FlagSet) {
	d := tgscreenshots.DefaultConfig()
	fs.StringP("directory", "d", d.Directory, "Directory to watch for screenshots")
	fs.StringP("chat-id", "c", d.ChatID, "Telegram chat id to send screenshots to")
	fs.Bool("no-initial-scan", d.NoInitialScan, "Do not send unsent screenshots found at startup")
	fs.String("thread-name-file", d.ThreadNameFile, "File whose first line names the forum topic to post into")
	fs.Bool("send-as-photo", d.SendAsPhoto, "Send screenshots as compressed photos")
	fs.Bool("send-as-document", d.SendAsDocument, "Send screenshots as uncompressed documents")
	fs.Bool("always-send", d.AlwaysSend, "Post a screenshot again when its file is written again")
	fs.String("db", d.DBPath, "Path of the SQLite ledger")
	fs.Int("workers", d.Workers, "Concurrent sends during the initial scan")
	fs.Duration("settle", d.Settle, "Quiet period before a new file is read")
	fs.String("log-file", d.LogFile, "Also append logs to this file")
	fs.String("api-endpoint", d.APIEndpoint, "Bot API endpoint format for a self-hosted server")
	fs.Bool("notify-local", d.NotifyLocal, "Desktop notification when a send or ledger write fails")
	fs.String("notify-cmd", d.NotifyCmd, "Shell command run on failures ({title} and {message} are replaced)")
	fs.String("slack-webhook", d.SlackWebhookURL, "Slack incoming webhook for failure alerts")
	fs.String("discord-channel", d.DiscordChannelID, "Discord channel id for failure alerts (needs DISCORD_BOT_TOKEN)")
}

// loadConfig layers defaults, the config file, the environment and the
// flags the user actually set, in that order.
func loadConfig(cmd *cobra.Command) (tgscreenshots.Config, error) {
	cfg := tgscreenshots.DefaultConfig()

	path, explicit := configPath(cmd)
	if explicit {
		if _, err := os.Stat(path); err != nil {
			return cfg, fmt.Errorf("config file: %w", err)
		}
	}
	if err := tgscreenshots.LoadConfigFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}

	tgscreenshots.LoadEnv(&cfg)
	applyFlags(cmd, &cfg)
	return cfg, validateConfig(cfg)
}

// applyFlags overlays the flags the user set on cfg.
func applyFlags(cmd *cobra.Command, cfg *tgscreenshots.Config) {
	fs := cmd.Flags()
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	if changed("directory") {
		cfg.Directory, _ = fs.GetString("directory")
	}
	if changed("chat-id") {
		cfg.ChatID, _ = fs.GetString("chat-id")
	}
	if changed("no-initial-scan") {
		cfg.NoInitialScan, _ = fs.GetBool("no-initial-scan")
	}
	if changed("thread-name-file") {
		cfg.ThreadNameFile, _ = fs.GetString("thread-name-file")
	}
	if changed("send-as-photo") {
		cfg.SendAsPhoto, _ = fs.GetBool("send-as-photo")
	}
	if changed("send-as-document") {
		cfg.SendAsDocument, _ = fs.GetBool("send-as-document")
	}
	if changed("always-send") {
		cfg.AlwaysSend, _ = fs.GetBool("always-send")
	}
	if changed("db") {
		cfg.DBPath, _ = fs.GetString("db")
	}
	if changed("workers") {
		cfg.Workers, _ = fs.GetInt("workers")
	}
	if changed("settle") {
		cfg.Settle, _ = fs.GetDuration("settle")
	}
	if changed("log-file") {
		cfg.LogFile, _ = fs.GetString("log-file")
	}
	if changed("api-endpoint") {
		cfg.APIEndpoint, _ = fs.GetString("api-endpoint")
	}
	if changed("notify-local") {
		cfg.NotifyLocal, _ = fs.GetBool("notify-local")
	}
	if changed("notify-cmd") {
		cfg.NotifyCmd, _ = fs.GetString("notify-cmd")
	}
	if changed("slack-webhook") {
		cfg.SlackWebhookURL, _ = fs.GetString("slack-webhook")
	}
	if changed("discord-channel") {
		cfg.DiscordChannelID, _ = fs.GetString("discord-channel")
	}
}

func validateConfig(cfg tgscreenshots.Config) error {
	if cfg.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Settle < 0 {
		return fmt.Errorf("--settle must not be negative, got %s", cfg.Settle)
	}
	return nil
}

// configPath returns the config file to read and whether the user named
// it explicitly.
func configPath(cmd *cobra.Command) (string, bool) {
	if f := cmd.Flags().Lookup("config"); f != nil && f.Changed {
		return f.Value.String(), true
	}
	return tgscreenshots.DefaultConfigFile, false
}
