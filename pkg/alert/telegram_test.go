package alert

import (
	"context"
	"errors"
	"net/http"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, b.err
}

func TestTelegramSend(t *testing.T) {
	bot := &fakeBot{}
	created := 0
	tg := NewTelegram("token", -100)
	tg.factory = func(token, _ string, _ *http.Client) (TelegramSender, error) {
		created++
		assert.Equal(t, "token", token)
		return bot, nil
	}

	n := FromTopic(solanaTopic())
	n.Topic = "Solana <beta>"
	require.NoError(t, tg.Send(context.Background(), n))
	require.NoError(t, tg.Send(context.Background(), n))

	assert.Equal(t, 1, created, "bot is created once")
	require.Len(t, bot.sent, 2)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.True(t, msg.DisableWebPagePreview)
	assert.Contains(t, msg.Text, "<b>Solana &lt;beta&gt;</b>")
	assert.Contains(t, msg.Text, `<a href="https://example.com/hn1">`)
}

func TestTelegramErrors(t *testing.T) {
	tg := NewTelegram("bad", 1)
	tg.factory = func(string, string, *http.Client) (TelegramSender, error) {
		return nil, errors.New("unauthorized")
	}
	assert.ErrorContains(t, tg.Send(context.Background(), &Notification{}), "create telegram bot")

	tg = NewTelegram("token", 1)
	tg.factory = func(string, string, *http.Client) (TelegramSender, error) {
		return &fakeBot{err: errors.New("chat not found")}, nil
	}
	assert.ErrorContains(t, tg.Send(context.Background(), &Notification{}), "chat not found")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tg.Send(ctx, &Notification{}), context.Canceled)
}
