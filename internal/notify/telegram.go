package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of *tg.BotAPI the notifier uses.
type sender interface {
	Send(c tg.Chattable) (tg.Message, error)
}

// Telegram posts notifications to one chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram connects to the bot API with token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tg.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Show(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := tg.NewMessage(t.chatID, formatMessage(n))
	m.ParseMode = tg.ModeHTML
	m.DisableWebPagePreview = true

	if _, err := t.bot.Send(m); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func formatMessage(n Notification) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(n.Title))
	b.WriteString("</b>")
	if n.Body != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(n.Body))
	}
	if n.URL != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(n.URL))
	}
	return b.String()
}
