package alert

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is the subset of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotFactory creates a TelegramSender for a token.
type BotFactory func(token, apiEndpoint string, client *http.Client) (TelegramSender, error)

var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return bot, nil
}

// Telegram sends notifications to a chat through a bot.
type Telegram struct {
	token   string
	chatID  int64
	factory BotFactory

	mu  sync.Mutex
	bot TelegramSender
}

// NewTelegram creates a new Telegram notifier. The bot is authorized on the
// first send.
func NewTelegram(token string, chatID int64) *Telegram {
	return &Telegram{token: token, chatID: chatID, factory: defaultBotFactory}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := t.sender()
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, formatTelegram(n))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (t *Telegram) sender() (TelegramSender, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := t.factory(t.token, tgbotapi.APIEndpoint, &http.Client{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func formatTelegram(n *Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 <b>%s</b> %s\n", html.EscapeString(n.Topic), html.EscapeString(n.Ticker))
	fmt.Fprintf(&b, "%s\n", html.EscapeString(n.Summary()))
	for _, l := range n.Links {
		fmt.Fprintf(&b, "• <a href=\"%s\">%s</a> [%s]\n",
			html.EscapeString(l.URL), html.EscapeString(l.Title), html.EscapeString(l.Source))
	}
	return b.String()
}
