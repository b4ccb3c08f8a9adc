package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Reporter posts a short text to the admin chat.
type Reporter interface {
	Report(ctx context.Context, text string) error
}

// Gate decides whether a key may fire again.
type Gate interface {
	Allow(key string) bool
}

type Options struct {
	// To receives session mails. Empty disables them.
	To       string
	Reporter Reporter
	Gate     Gate
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Notifier sends best-effort session and contact notifications.
type Notifier struct {
	sender   Sender
	to       string
	reporter Reporter
	gate     Gate
	timeout  time.Duration
	validate *validator.Validate
	log      *zap.Logger
}

func New(sender Sender, opts Options) *Notifier {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Notifier{
		sender:   sender,
		to:       opts.To,
		reporter: opts.Reporter,
		gate:     opts.Gate,
		timeout:  opts.Timeout,
		validate: validator.New(),
		log:      opts.Logger,
	}
}

// SessionStarted notifies at most once per gate window for each user.
func (n *Notifier) SessionStarted(ctx context.Context, userID int64) {
	if n.gate != nil && !n.gate.Allow(strconv.FormatInt(userID, 10)) {
		n.log.Debug("🔕 session notification suppressed", zap.Int64("user_id", userID))
		return
	}
	text := fmt.Sprintf("🆕 User %d started a new CV session.", userID)
	n.deliver(ctx, "New CV session started", text)
}

func (n *Notifier) SessionCompleted(ctx context.Context, userID int64, name string, ok bool) {
	subject := "CV generated"
	text := fmt.Sprintf("✅ User %d generated a CV for %q.", userID, name)
	if !ok {
		subject = "CV generation failed"
		text = fmt.Sprintf("❌ CV generation failed for user %d (%q).", userID, name)
	}
	n.deliver(ctx, subject, text)
}

func (n *Notifier) deliver(ctx context.Context, subject, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if n.sender != nil && n.to != "" {
		if err := n.sender.Send(ctx, Mail{To: n.to, Subject: subject, Body: text}); err != nil {
			n.log.Warn("⚠️ notification mail failed", zap.String("subject", subject), zap.Error(err))
		}
	}
	if n.reporter != nil {
		if err := n.reporter.Report(ctx, text); err != nil {
			n.log.Warn("⚠️ admin report failed", zap.String("subject", subject), zap.Error(err))
		}
	}
}

var ErrInvalidForm = errors.New("invalid contact form")

// ContactForm is a message sent from the public contact page.
type ContactForm struct {
	Name    string `form:"name"`
	Email   string `form:"email" validate:"required,email"`
	Subject string `form:"subject" validate:"required"`
	Message string `form:"message" validate:"required"`
}

type ContactResult int

const (
	ContactSent ContactResult = iota
	// ContactSaved means SMTP is not configured and the mail went to the outbox.
	ContactSaved
)

// Contact validates the form and forwards it to the configured receiver.
func (n *Notifier) Contact(ctx context.Context, f ContactForm) (ContactResult, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Subject = strings.TrimSpace(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	if err := n.validate.Struct(f); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if n.sender == nil || n.to == "" {
		return 0, fmt.Errorf("contact receiver is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	m := Mail{
		To:      n.to,
		ReplyTo: f.Email,
		Subject: f.Subject,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", f.Name, f.Email, f.Message),
	}
	if err := n.sender.Send(ctx, m); err != nil {
		return 0, fmt.Errorf("failed to send contact message: %w", err)
	}
	if n.sender.Outbox() {
		return ContactSaved, nil
	}
	return ContactSent, nil
}
