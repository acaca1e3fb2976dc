package notifier

import (
	"context"
	"net/http"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/dkent600/mexc-portfolio-tracker/internal/redact"
	"github.com/dkent600/mexc-portfolio-tracker/pkg/retrier"
)

const (
	telegramMaxMessage = 4096
	defaultSendTimeout = 15 * time.Second
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts HTML messages to one chat.
type Telegram struct {
	bot     sender
	chatID  int64
	r       *redact.Redactor
	retrier *retrier.Retrier
}

// NewTelegram authenticates the bot token against the Bot API.
func NewTelegram(token string, chatID int64, r *redact.Redactor) (*Telegram, error) {
	httpClient := &http.Client{Timeout: defaultSendTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}

	return newTelegram(bot, chatID, r, retrier.New(
		retrier.WithMaxRetries(2),
		retrier.WithInitialInterval(500*time.Millisecond),
		retrier.WithMaxInterval(2*time.Second),
		retrier.WithRetryIf(isTransient),
	)), nil
}

func newTelegram(bot sender, chatID int64, r *redact.Redactor, rt *retrier.Retrier) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, r: r, retrier: rt}
}

// Notify redacts and sends message. Oversized messages are truncated and
// sent as plain text so a cut tag cannot make Telegram reject them.
func (t *Telegram) Notify(ctx context.Context, message string) error {
	text := t.r.HTML(message)

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if utf8.RuneCountInString(text) > telegramMaxMessage {
		msg.Text = truncate(text, telegramMaxMessage)
		msg.ParseMode = ""
	}

	return t.retrier.Do(ctx, func(ctx context.Context) error {
		if _, err := t.bot.Send(msg); err != nil {
			return errors.Wrap(err, "failed to send telegram message")
		}
		return nil
	})
}

// isTransient: Bot API rejections (bad chat, bad markup, bad token) will not
// succeed on retry; network errors and rate limiting might.
func isTransient(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return tgErr.Code == http.StatusTooManyRequests || tgErr.Code >= http.StatusInternalServerError
	}
	return true
}

func truncate(s string, limit int) string {
	const ellipsis = "…"
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + ellipsis
}
