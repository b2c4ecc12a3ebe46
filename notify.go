package tgscreenshots

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/slack-go/slack"
)

// ErrUnsupportedOS is returned by LocalNotifier on unsupported platforms.
var ErrUnsupportedOS = errors.New("notify: unsupported OS for local notifications")

// Notifier sends fire-and-forget notifications to the human operator.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// cmdRunner abstracts exec.Cmd.Run for testing.
type cmdRunner interface {
	Run() error
}

// cmdFactory creates a cmdRunner from command name and args.
type cmdFactory func(ctx context.Context, name string, args ...string) cmdRunner

func defaultCmdFactory(ctx context.Context, name string, args ...string) cmdRunner {
	return exec.CommandContext(ctx, name, args...)
}

// LocalNotifier sends desktop notifications using OS-native commands.
// darwin: osascript, linux: notify-send, others: returns ErrUnsupportedOS.
type LocalNotifier struct {
	makeCmd cmdFactory
	forceOS string // for testing; empty = use runtime.GOOS
}

func (n *LocalNotifier) os() string {
	if n.forceOS != "" {
		return n.forceOS
	}
	return runtime.GOOS
}

func (n *LocalNotifier) factory() cmdFactory {
	if n.makeCmd != nil {
		return n.makeCmd
	}
	return defaultCmdFactory
}

func (n *LocalNotifier) Notify(ctx context.Context, title, message string) error {
	mk := n.factory()

	switch n.os() {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return mk(ctx, "osascript", "-e", script).Run()
	case "linux":
		return mk(ctx, "notify-send", title, message).Run()
	default:
		return ErrUnsupportedOS
	}
}

// CmdNotifier executes a user-provided shell command for notifications.
// The template may contain {title} and {message} placeholders.
type CmdNotifier struct {
	cmdTemplate string
	makeCmd     cmdFactory
}

func NewCmdNotifier(cmdTemplate string) *CmdNotifier {
	return &CmdNotifier{cmdTemplate: cmdTemplate}
}

func (n *CmdNotifier) factory() cmdFactory {
	if n.makeCmd != nil {
		return n.makeCmd
	}
	return defaultCmdFactory
}

func (n *CmdNotifier) Notify(ctx context.Context, title, message string) error {
	expanded := strings.ReplaceAll(n.cmdTemplate, "{title}", title)
	expanded = strings.ReplaceAll(expanded, "{message}", message)
	return n.factory()(ctx, "sh", "-c", expanded).Run()
}

// SlackNotifier posts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL, post: slack.PostWebhookContext}
}

func (n *SlackNotifier) Notify(ctx context.Context, title, message string) error {
	msg := &slack.WebhookMessage{Text: fmt.Sprintf("*%s*\n%s", title, message)}
	if err := n.post(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("notify slack: %w", err)
	}
	return nil
}

// discordSender is the subset of *discordgo.Session used for alerts.
type discordSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts alerts to a Discord channel as a bot.
type DiscordNotifier struct {
	session   discordSender
	channelID string
}

func NewDiscordNotifier(token, channelID string) (*DiscordNotifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notify discord: %w", err)
	}
	return &DiscordNotifier{session: s, channelID: channelID}, nil
}

func (n *DiscordNotifier) Notify(ctx context.Context, title, message string) error {
	content := fmt.Sprintf("**%s**\n%s", title, message)
	if _, err := n.session.ChannelMessageSend(n.channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("notify discord: %w", err)
	}
	return nil
}

// MultiNotifier fans a notification out to every configured notifier.
// ErrUnsupportedOS from one of them is dropped when another succeeded.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, title, message string) error {
	var errs error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil && !(errors.Is(err, ErrUnsupportedOS) && len(m) > 1) {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// NopNotifier is a no-op notifier for quiet mode or testing.
type NopNotifier struct{}

func (n *NopNotifier) Notify(_ context.Context, _, _ string) error {
	return nil
}

// BuildNotifier assembles the notifiers enabled in cfg.
func BuildNotifier(cfg Config) (Notifier, error) {
	var out MultiNotifier
	if cfg.NotifyLocal {
		out = append(out, &LocalNotifier{})
	}
	if cfg.NotifyCmd != "" {
		out = append(out, NewCmdNotifier(cfg.NotifyCmd))
	}
	if cfg.SlackWebhookURL != "" {
		out = append(out, NewSlackNotifier(cfg.SlackWebhookURL))
	}
	if cfg.DiscordChannelID != "" {
		if cfg.DiscordToken == "" {
			return nil, errors.New("notify discord: DISCORD_BOT_TOKEN is not set")
		}
		d, err := NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	switch len(out) {
	case 0:
		return &NopNotifier{}, nil
	case 1:
		return out[0], nil
	}
	return out, nil
}
