package tgscreenshots

import (
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// greetingFor decides whether update deserves a reply and builds it.
// The bot answers /start, tells a group it just joined which chat id to
// use, and does the same for channel posts not written by itself.
func greetingFor(update tgbotapi.Update, selfID int64) (chatID int64, text string, ok bool) {
	switch {
	case update.Message != nil:
		m := update.Message
		if m.Chat == nil {
			return 0, "", false
		}
		if m.IsCommand() && m.Command() == "start" {
			return m.Chat.ID, Msg("greet_start"), true
		}
		for _, member := range m.NewChatMembers {
			if member.ID == selfID {
				return m.Chat.ID, chatIDHelp(m.Chat.ID), true
			}
		}
	case update.ChannelPost != nil:
		p := update.ChannelPost
		if p.Chat == nil {
			return 0, "", false
		}
		if p.From != nil && p.From.ID == selfID {
			return 0, "", false
		}
		return p.Chat.ID, chatIDHelp(p.Chat.ID), true
	}
	return 0, "", false
}

func chatIDHelp(chatID int64) string {
	return fmt.Sprintf(Msg("greet_chat_id"),
		chatID,
		html.EscapeString(fmt.Sprintf("tgscreenshots --chat-id=%d --directory=<screenshot-dir>", chatID)),
	)
}
