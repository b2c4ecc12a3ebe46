package tgscreenshots

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("telegram: BOT_TOKEN is not set")

// MessagingClient is the subset of the messaging platform used by the
// delivery pipeline. threadID 0 means the top-level chat.
type MessagingClient interface {
	SendPhoto(ctx context.Context, chatID string, threadID int64, path string) (int64, error)
	SendDocument(ctx context.Context, chatID string, threadID int64, path string) (int64, error)
	CreateForumTopic(ctx context.Context, chatID, name string) (int64, error)
	CopyMessage(ctx context.Context, chatID string, threadID int64, messageID int64) (int64, error)
}

// TelegramClient implements MessagingClient on the Bot API. Calls go
// through the raw request helpers so topic parameters newer than the
// library's typed configs can be passed.
type TelegramClient struct {
	bot *tgbotapi.BotAPI

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewTelegramClient authenticates with token. apiEndpoint may be empty
// for the public Bot API; it must follow tgbotapi.APIEndpoint's format.
func NewTelegramClient(token, apiEndpoint string) (*TelegramClient, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: start session: %w", err)
	}
	return &TelegramClient{bot: bot}, nil
}

// Username returns the bot's @username.
func (c *TelegramClient) Username() string { return c.bot.Self.UserName }

func (c *TelegramClient) SendPhoto(ctx context.Context, chatID string, threadID int64, path string) (int64, error) {
	return c.upload(ctx, "sendPhoto", "photo", chatID, threadID, path)
}

func (c *TelegramClient) SendDocument(ctx context.Context, chatID string, threadID int64, path string) (int64, error) {
	return c.upload(ctx, "sendDocument", "document", chatID, threadID, path)
}

func (c *TelegramClient) upload(ctx context.Context, method, field, chatID string, threadID int64, path string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	params := tgbotapi.Params{"chat_id": chatID}
	params.AddNonZero64("message_thread_id", threadID)
	files := []tgbotapi.RequestFile{{
		Name: field,
		Data: tgbotapi.FilePath(filepath.Clean(path)),
	}}

	resp, err := c.bot.UploadFiles(method, params, files)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", method, err)
	}
	var msg struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return 0, fmt.Errorf("%s: decode result: %w", method, err)
	}
	return msg.MessageID, nil
}

func (c *TelegramClient) CreateForumTopic(ctx context.Context, chatID, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	resp, err := c.bot.MakeRequest("createForumTopic", tgbotapi.Params{
		"chat_id": chatID,
		"name":    name,
	})
	if err != nil {
		return 0, fmt.Errorf("createForumTopic: %w", err)
	}
	var topic struct {
		MessageThreadID int64  `json:"message_thread_id"`
		Name            string `json:"name"`
	}
	if err := json.Unmarshal(resp.Result, &topic); err != nil {
		return 0, fmt.Errorf("createForumTopic: decode result: %w", err)
	}
	return topic.MessageThreadID, nil
}

// CopyMessage re-posts a message the bot already sent to chatID.
func (c *TelegramClient) CopyMessage(ctx context.Context, chatID string, threadID int64, messageID int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	params := tgbotapi.Params{
		"chat_id":      chatID,
		"from_chat_id": chatID,
	}
	params.AddNonZero64("message_id", messageID)
	params.AddNonZero64("message_thread_id", threadID)

	resp, err := c.bot.MakeRequest("copyMessage", params)
	if err != nil {
		return 0, fmt.Errorf("copyMessage: %w", err)
	}
	var copied struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(resp.Result, &copied); err != nil {
		return 0, fmt.Errorf("copyMessage: decode result: %w", err)
	}
	return copied.MessageID, nil
}

// Start polls for updates and answers chat-id questions until Stop is
// called or ctx is cancelled. It returns immediately.
func (c *TelegramClient) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	stop, done := c.stop, c.done

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.bot.GetUpdatesChan(u)
	LogOK("%s", fmt.Sprintf(Msg("bot_started"), c.bot.Self.UserName))

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				chatID, text, reply := greetingFor(update, c.bot.Self.ID)
				if !reply {
					continue
				}
				msg := tgbotapi.NewMessage(chatID, text)
				msg.ParseMode = tgbotapi.ModeHTML
				if _, err := c.bot.Send(msg); err != nil {
					LogWarn("greeting to %d: %v", chatID, err)
				}
			}
		}
	}()
}

// Stop ends update polling. Safe to call more than once.
func (c *TelegramClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
	c.bot.StopReceivingUpdates()
	<-c.done
}
