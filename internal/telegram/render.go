package telegram

import (
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"go-cv-bot/internal/interview"
)

func keyboard(m interview.Menu) *tgbotapi.InlineKeyboardMarkup {
	if len(m) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(m))
	for _, r := range m {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// chattable converts one outbound message. Replace only applies when
// the event came from a button.
func chattable(chatID int64, msgID int, m interview.Message) tgbotapi.Chattable {
	mode := ""
	if m.HTML {
		mode = tgbotapi.ModeHTML
	}
	kb := keyboard(m.Menu)

	if m.Replace && msgID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, msgID, m.Text)
		edit.ParseMode = mode
		edit.ReplyMarkup = kb
		return edit
	}

	msg := tgbotapi.NewMessage(chatID, m.Text)
	msg.ParseMode = mode
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	return msg
}

func (b *Bot) send(in inbound, msgs []interview.Message) {
	for _, m := range msgs {
		if m.File != nil {
			b.sendFile(in.chatID, m.File)
			continue
		}
		if _, err := b.api.Send(chattable(in.chatID, in.msgID, m)); err != nil {
			b.log.Warn("⚠️ Failed to send message", zap.Int64("chat_id", in.chatID), zap.Error(err))
		}
	}
}

func (b *Bot) sendFile(chatID int64, a *interview.Attachment) {
	if a.Temporary {
		defer func() {
			if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
				b.log.Warn("⚠️ Error cleaning up file", zap.String("path", a.Path), zap.Error(err))
			}
		}()
	}

	f, err := os.Open(a.Path)
	if err != nil {
		b.log.Error("❌ Cannot open document", zap.String("path", a.Path), zap.Error(err))
		return
	}
	defer f.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: a.Name, Reader: f})
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("❌ Failed to send document", zap.String("name", a.Name), zap.Error(err))
	}
}

func (b *Bot) sendLinks(chatID int64, text string, rows [][]tgbotapi.InlineKeyboardButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn("⚠️ Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
