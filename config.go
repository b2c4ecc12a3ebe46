package tgscreenshots

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when --config
// is not given.
const DefaultConfigFile = "tgscreenshots.yaml"

// Config holds the runtime configuration of the watcher.
type Config struct {
	Directory      string        `yaml:"directory"`
	ChatID         string        `yaml:"chat_id"`
	NoInitialScan  bool          `yaml:"no_initial_scan"`
	ThreadNameFile string        `yaml:"thread_name_file,omitempty"`
	SendAsPhoto    bool          `yaml:"send_as_photo"`
	SendAsDocument bool          `yaml:"send_as_document"`
	AlwaysSend     bool          `yaml:"always_send"` // re-post known screenshots on live events
	DBPath         string        `yaml:"db"`
	Workers        int           `yaml:"workers"` // concurrent sends during reconciliation
	Settle         time.Duration `yaml:"settle"`  // quiet period before a new file is read
	LogFile        string        `yaml:"log_file,omitempty"`
	APIEndpoint    string        `yaml:"api_endpoint,omitempty"` // Bot API endpoint format, for self-hosted servers

	NotifyLocal      bool   `yaml:"notify_local,omitempty"`
	NotifyCmd        string `yaml:"notify_cmd,omitempty"`
	SlackWebhookURL  string `yaml:"slack_webhook_url,omitempty"`
	DiscordChannelID string `yaml:"discord_channel_id,omitempty"`

	// Secrets come from the environment only.
	BotToken     string `yaml:"-"`
	DiscordToken string `yaml:"-"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Directory:   ".",
		SendAsPhoto: true,
		DBPath:      "db.sqlite",
		Workers:     4,
		Settle:      300 * time.Millisecond,
	}
}

// Modes returns the transport modes selected by the config.
func (c Config) Modes() Modes {
	return Modes{Photo: c.SendAsPhoto, Document: c.SendAsDocument}
}

// LoadConfigFile overlays the YAML file at path onto cfg. A missing file
// leaves cfg untouched and is not an error.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// SaveConfigFile writes cfg as YAML to path.
func SaveConfigFile(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnv reads secrets from the environment, loading a .env file in the
// working directory first if one exists. Variables already set win.
func LoadEnv(cfg *Config) {
	_ = godotenv.Load()
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		cfg.DiscordToken = v
	}
	if v := os.Getenv("TGSCREENSHOTS_CHAT_ID"); v != "" {
		cfg.ChatID = v
	}
}
