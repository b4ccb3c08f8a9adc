package reporter

import (
	"context"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramReporter posts operational messages to the admin chat.
// A zero chat ID disables it.
type TelegramReporter struct {
	bot    sender
	chatID int64
}

func NewTelegramReporter(bot *tgbotapi.BotAPI, chatID int64) *TelegramReporter {
	if bot == nil {
		return &TelegramReporter{chatID: chatID}
	}
	return newReporter(bot, chatID)
}

func newReporter(bot sender, chatID int64) *TelegramReporter {
	return &TelegramReporter{bot: bot, chatID: chatID}
}

func (t *TelegramReporter) Enabled() bool {
	return t != nil && t.bot != nil && t.chatID != 0
}

func (t *TelegramReporter) SendMessage(text string) error {
	if !t.Enabled() {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML //use HTML for bold/italic
	_, err := t.bot.Send(msg)
	return err
}

// Report sends plain text, escaped for HTML.
func (t *TelegramReporter) Report(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.SendMessage(html.EscapeString(text))
}

func (t *TelegramReporter) SendError(errReq error) error {
	text := fmt.Sprintf("⚠️ <b>CV Bot Error</b>:\n%s", html.EscapeString(errReq.Error()))
	return t.SendMessage(text)
}

func (t *TelegramReporter) SendStatus(message string) error {
	return t.SendMessage("ℹ️ " + html.EscapeString(message))
}
