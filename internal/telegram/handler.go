package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"go-cv-bot/internal/interview"
	"go-cv-bot/internal/metrics"
	"go-cv-bot/internal/models"
)

const (
	msgError       = "❌ An error occurred. Please try again or /cancel to start over."
	msgNoSession   = "👋 Send /start to create your CV."
	msgPaymentGate = "💳 Creating a CV requires payment.\nPlease contact us to get access, then send /start again."
	msgCommentHelp = "💬 Please type your comment after the /comment command.\nExample: /comment you made it real cv app"
	msgCommentNone = "❗ You need to provide a comment. Example:\n<code>/comment This CV bot is amazing!</code>"
	msgCommentSave = "✅ Thank you! Your comment has been saved."
	msgJoin        = "🌐 Join our community pages below and confirm after joining:"
	msgJoined      = "🎉 Thank you for joining our community!\nStay tuned for more updates and opportunities."

	actionJoined = "joined_success"
)

// inbound is one update reduced to what the handlers need.
type inbound struct {
	user   *tgbotapi.User
	chatID int64
	// msgID is the message carrying the pressed button, 0 otherwise.
	msgID int
	event interview.Event
	args  string
	photo []tgbotapi.PhotoSize
}

func parseUpdate(u tgbotapi.Update) (inbound, bool) {
	in := inbound{user: u.SentFrom()}
	chat := u.FromChat()
	if in.user == nil || chat == nil {
		return in, false
	}
	in.chatID = chat.ID

	if cq := u.CallbackQuery; cq != nil {
		in.event = interview.Action(cq.Data)
		if cq.Message != nil {
			in.msgID = cq.Message.MessageID
		}
		return in, true
	}

	m := u.Message
	if m == nil {
		return in, false
	}
	switch {
	case m.IsCommand():
		in.event = interview.Command(strings.ToLower(m.Command()))
		in.args = m.CommandArguments()
	case len(m.Photo) > 0:
		in.event = interview.Event{Kind: interview.EventPhoto}
		in.photo = m.Photo
	case m.Text != "":
		in.event = interview.Text(m.Text)
	default:
		return in, false
	}
	return in, true
}

func kindLabel(k interview.EventKind) string {
	switch k {
	case interview.EventCommand:
		return "command"
	case interview.EventAction:
		return "action"
	case interview.EventPhoto:
		return "photo"
	}
	return "text"
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}

func (b *Bot) handleUpdate(ctx context.Context, u tgbotapi.Update) {
	in, ok := parseUpdate(u)
	if !ok {
		return
	}
	if cq := u.CallbackQuery; cq != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.log.Debug("callback answer failed", zap.Error(err))
		}
	}

	metrics.UpdatesHandled.WithLabelValues(kindLabel(in.event.Kind)).Inc()
	defer b.recoverUpdate(in)

	b.analytics.Identify(ctx, models.User{
		ID:        in.user.ID,
		Username:  in.user.UserName,
		FirstName: in.user.FirstName,
		LastName:  in.user.LastName,
	})
	b.send(in, b.route(ctx, in))
}

// recoverUpdate turns a handler panic into an error reply and drops the
// user's session.
func (b *Bot) recoverUpdate(in inbound) {
	r := recover()
	if r == nil {
		return
	}
	err := fmt.Errorf("panic handling update: %v", r)
	b.log.Error("💥 Update handler crashed",
		zap.Int64("user_id", in.user.ID),
		zap.Error(err),
		zap.ByteString("stack", debug.Stack()))

	if s, ok := b.sessions.Get(in.user.ID); ok {
		b.sessions.Delete(in.user.ID)
		b.machine.Discard(s, "crashed")
	}
	if b.reporter != nil {
		if rerr := b.reporter.SendError(err); rerr != nil {
			b.log.Warn("⚠️ Failed to report crash", zap.Error(rerr))
		}
	}
	b.send(in, []interview.Message{{Text: msgError}})
}

func (b *Bot) route(ctx context.Context, in inbound) []interview.Message {
	userID := in.user.ID
	ev := in.event

	if b.feedback.Active(userID) {
		if handled, out := b.feedback.Handle(ctx, userID, displayName(in.user), ev); handled {
			return out
		}
	}

	switch {
	case ev.Kind == interview.EventCommand:
		switch ev.Text {
		case "start":
			return b.start(ctx, in)
		case "comment":
			return b.comment(ctx, in)
		case "feedback":
			return b.feedback.Begin(ctx, userID)
		case "join":
			return b.join(in)
		}
	case ev.Kind == interview.EventAction && ev.Text == actionJoined:
		return []interview.Message{{Text: msgJoined, Replace: true}}
	}

	s, ok := b.sessions.Get(userID)
	if !ok || s.State.Terminal() {
		if ev.Kind == interview.EventAction {
			return nil
		}
		return []interview.Message{{Text: msgNoSession}}
	}

	if ev.Kind == interview.EventPhoto && s.State == interview.StatePhoto {
		ev.PhotoPath, ev.Err = b.downloadPhoto(ctx, userID, in.photo)
	}

	state, out := b.machine.Handle(ctx, s, ev)
	if state.Terminal() {
		b.sessions.Delete(userID)
	} else {
		b.sessions.Put(s)
	}
	return out
}

func (b *Bot) start(ctx context.Context, in inbound) []interview.Message {
	userID := in.user.ID
	if b.gate != nil {
		allowed, err := b.gate.Allowed(userID)
		if err != nil {
			// payment state unreadable, let the user through
			b.log.Warn("⚠️ Payment gate check failed", zap.Int64("user_id", userID), zap.Error(err))
			allowed = true
		}
		if !allowed {
			b.log.Info("💳 Blocked unpaid user", zap.Int64("user_id", userID))
			var rows [][]tgbotapi.InlineKeyboardButton
			if b.contactURL != "" {
				rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("📞 Contact", b.contactURL)))
			}
			b.sendLinks(in.chatID, msgPaymentGate, rows)
			return nil
		}
	}

	if old, ok := b.sessions.Get(userID); ok {
		b.machine.Discard(old, "restarted")
	}
	s, out := b.machine.Start(ctx, userID)
	b.sessions.Put(s)
	return out
}

func (b *Bot) comment(ctx context.Context, in inbound) []interview.Message {
	if in.args == "" {
		return []interview.Message{{Text: msgCommentHelp}}
	}
	text := strings.TrimSpace(in.args)
	if text == "" {
		return []interview.Message{{Text: msgCommentNone, HTML: true}}
	}
	b.analytics.Comment(ctx, in.user.ID, displayName(in.user), text)
	return []interview.Message{{Text: msgCommentSave}}
}

func (b *Bot) join(in inbound) []interview.Message {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, l := range b.community {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(l.Text, l.URL)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ I've Joined", actionJoined)))

	b.sendLinks(in.chatID, msgJoin, rows)
	return nil
}
