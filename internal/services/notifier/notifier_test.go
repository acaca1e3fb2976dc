package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dkent600/mexc-portfolio-tracker/internal/redact"
	"github.com/dkent600/mexc-portfolio-tracker/pkg/retrier"
)

type fakeSender struct {
	errs []error
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.sent = append(f.sent, msg)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return tgbotapi.Message{}, err
		}
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func fastRetrier() *retrier.Retrier {
	return retrier.New(
		retrier.WithMaxRetries(2),
		retrier.WithInitialInterval(time.Millisecond),
		retrier.WithRetryIf(isTransient),
	)
}

func TestMarkup(t *testing.T) {
	assert.Equal(t, "<b>Total: $1 &lt; $2</b>", Bold("Total: $1 < $2"))
	assert.Equal(t, "<code>AVAXUSDT</code>", Code("AVAXUSDT"))
	assert.Equal(t, "<pre>a &amp; b</pre>", Pre("a & b"))
}

func TestTelegram_Notify(t *testing.T) {
	fs := &fakeSender{}
	r := redact.New(redact.Secret{Value: "s3cr3t", Placeholder: "<API_SECRET>"})
	tg := newTelegram(fs, 42, r, fastRetrier())

	require.NoError(t, tg.Notify(context.Background(), Bold("failed")+" "+Pre("signature s3cr3t rejected")))

	require.Len(t, fs.sent, 1)
	msg := fs.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Equal(t, "<b>failed</b> <pre>signature &lt;API_SECRET&gt; rejected</pre>", msg.Text)
	assert.NotContains(t, msg.Text, "s3cr3t")
}

func TestTelegram_NotifyRedactsEscapedSecrets(t *testing.T) {
	fs := &fakeSender{}
	r := redact.New(
		redact.Secret{Value: "ab&cd", Placeholder: "<API_SECRET>"},
		redact.Secret{Value: `k"ey<1>`, Placeholder: "<API_KEY>"},
	)
	tg := newTelegram(fs, 42, r, fastRetrier())

	require.NoError(t, tg.Notify(context.Background(), Pre("signature ab&cd rejected")+" "+Code(`k"ey<1>`)))

	require.Len(t, fs.sent, 1)
	text := fs.sent[0].Text
	assert.Equal(t, "<pre>signature &lt;API_SECRET&gt; rejected</pre> <code>&lt;API_KEY&gt;</code>", text)
	assert.NotContains(t, text, "ab&amp;cd")
	assert.NotContains(t, text, "k&#34;ey")
}

func TestTelegram_RetriesTransientErrors(t *testing.T) {
	fs := &fakeSender{errs: []error{errors.New("i/o timeout"), nil}}
	tg := newTelegram(fs, 1, nil, fastRetrier())

	require.NoError(t, tg.Notify(context.Background(), "hello"))
	assert.Len(t, fs.sent, 2)
}

func TestTelegram_DoesNotRetryRejections(t *testing.T) {
	fs := &fakeSender{errs: []error{&tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}}}
	tg := newTelegram(fs, 1, nil, fastRetrier())

	err := tg.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Len(t, fs.sent, 1)
}

func TestTelegram_TruncatesLongMessages(t *testing.T) {
	fs := &fakeSender{}
	tg := newTelegram(fs, 1, nil, fastRetrier())

	require.NoError(t, tg.Notify(context.Background(), Pre(strings.Repeat("x", 5000))))
	require.Len(t, fs.sent, 1)
	assert.Equal(t, telegramMaxMessage, utf8.RuneCountInString(fs.sent[0].Text))
	assert.Empty(t, fs.sent[0].ParseMode)
}

type failingNotifier struct{ err error }

func (f failingNotifier) Notify(context.Context, string) error { return f.err }

func TestAttempt_SwallowsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	assert.NotPanics(t, func() {
		Attempt(context.Background(), failingNotifier{err: errors.New("telegram down")}, "msg", zap.New(core))
		Attempt(context.Background(), nil, "msg", zap.New(core))
		Attempt(context.Background(), Nop{}, "msg", nil)
	})

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "notification not delivered", logs.All()[0].Message)
}
