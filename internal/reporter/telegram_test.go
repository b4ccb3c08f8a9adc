package reporter

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestReporterDisabled(t *testing.T) {
	bot := &fakeBot{}
	r := newReporter(bot, 0)

	assert.False(t, r.Enabled())
	assert.NoError(t, r.Report(context.Background(), "hello"))
	assert.Empty(t, bot.sent)

	var nilReporter *TelegramReporter
	assert.NoError(t, nilReporter.SendStatus("x"))
}

func TestReporterEscapes(t *testing.T) {
	bot := &fakeBot{}
	r := newReporter(bot, 99)

	require.NoError(t, r.Report(context.Background(), "user <b> & co"))
	require.NoError(t, r.SendError(errors.New("boom <x>")))

	require.Len(t, bot.sent, 2)
	assert.Equal(t, int64(99), bot.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, bot.sent[0].ParseMode)
	assert.Equal(t, "user &lt;b&gt; &amp; co", bot.sent[0].Text)
	assert.Contains(t, bot.sent[1].Text, "<b>CV Bot Error</b>")
	assert.Contains(t, bot.sent[1].Text, "boom &lt;x&gt;")
}

func TestReportHonoursCancelledContext(t *testing.T) {
	bot := &fakeBot{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, newReporter(bot, 1).Report(ctx, "late"))
	assert.Empty(t, bot.sent)
}
