package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"go-cv-bot/internal/config"
)

type Mail struct {
	To      string
	ReplyTo string
	Subject string
	Body    string
}

// Sender delivers one mail. Outbox reports whether mails only land on
// local disk instead of going out over SMTP.
type Sender interface {
	Send(ctx context.Context, m Mail) error
	Outbox() bool
}

// NewSender returns an SMTP sender when a host is configured and an
// outbox writer otherwise.
func NewSender(cfg config.SMTPConfig) Sender {
	from := cfg.From
	if from == "" {
		from = "no-reply@example.com"
	}
	if cfg.Host != "" && cfg.Port != 0 {
		return &SMTPSender{
			dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
			from:   from,
		}
	}
	return &OutboxSender{dir: cfg.OutboxDir, from: from, now: time.Now}
}

func compose(from string, m Mail) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", m.To)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", m.Body)
	return msg
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func (s *SMTPSender) Outbox() bool { return false }

// Send dials per message. gomail has no context support, so a cancelled
// ctx only stops the wait, not the dial.
func (s *SMTPSender) Send(ctx context.Context, m Mail) error {
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(compose(s.from, m))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OutboxSender writes each mail as an .eml file for manual pickup.
type OutboxSender struct {
	dir  string
	from string
	now  func() time.Time
}

func (o *OutboxSender) Outbox() bool { return true }

func (o *OutboxSender) Send(ctx context.Context, m Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create outbox: %w", err)
	}
	name := fmt.Sprintf("message_%s_%s.eml", o.now().Format("20060102T150405"), uuid.NewString()[:8])
	f, err := os.Create(filepath.Join(o.dir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	if _, err := compose(o.from, m).WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
