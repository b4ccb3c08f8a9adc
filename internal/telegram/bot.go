package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"go-cv-bot/internal/config"
	"go-cv-bot/internal/feedback"
	"go-cv-bot/internal/interview"
	"go-cv-bot/internal/models"
)

// API is the part of the Telegram Bot API the bot talks to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Poller delivers updates through long polling.
type Poller interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type PaymentGate interface {
	Allowed(userID int64) (bool, error)
}

type Analytics interface {
	Identify(ctx context.Context, u models.User)
	Comment(ctx context.Context, userID int64, username, text string)
}

type Reporter interface {
	SendError(err error) error
}

type Deps struct {
	API       API
	Machine   *interview.Machine
	Sessions  *interview.Store
	Feedback  *feedback.Collector
	Analytics Analytics
	Gate      PaymentGate
	Reporter  Reporter
	Logger    *zap.Logger

	// TempDir receives downloaded photos.
	TempDir    string
	ContactURL string
	Community  []config.LinkConfig
	HTTPClient *http.Client
	// MaxConcurrent bounds how many users are served at once.
	MaxConcurrent int64
}

type Bot struct {
	api        API
	machine    *interview.Machine
	sessions   *interview.Store
	feedback   *feedback.Collector
	analytics  Analytics
	gate       PaymentGate
	reporter   Reporter
	log        *zap.Logger
	tempDir    string
	contactURL string
	community  []config.LinkConfig
	http       *http.Client

	dispatcher *Dispatcher
}

func NewBot(ctx context.Context, d Deps) (*Bot, error) {
	if d.API == nil || d.Machine == nil || d.Sessions == nil {
		return nil, fmt.Errorf("telegram bot needs an API, a machine and a session store")
	}
	b := &Bot{
		api:        d.API,
		machine:    d.Machine,
		sessions:   d.Sessions,
		feedback:   d.Feedback,
		analytics:  d.Analytics,
		gate:       d.Gate,
		reporter:   d.Reporter,
		log:        d.Logger,
		tempDir:    d.TempDir,
		contactURL: d.ContactURL,
		community:  d.Community,
		http:       d.HTTPClient,
		dispatcher: NewDispatcher(ctx, d.MaxConcurrent),
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.feedback == nil {
		b.feedback = feedback.NewCollector(nopAnalytics{})
	}
	if b.analytics == nil {
		b.analytics = nopAnalytics{}
	}
	if b.http == nil {
		b.http = &http.Client{Timeout: 30 * time.Second}
	}
	if b.tempDir == "" {
		b.tempDir = "temp"
	}
	return b, nil
}

// Submit queues an update behind the sender's pending updates.
func (b *Bot) Submit(u tgbotapi.Update) {
	var userID int64
	if from := u.SentFrom(); from != nil {
		userID = from.ID
	}
	b.dispatcher.Do(userID, func(ctx context.Context) {
		b.handleUpdate(ctx, u)
	})
}

// Run long-polls for updates until ctx is cancelled, then waits for
// in-flight updates to finish.
func (b *Bot) Run(ctx context.Context, p Poller) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := p.GetUpdatesChan(cfg)

	b.log.Info("🤖 Bot is polling for updates")
	for {
		select {
		case <-ctx.Done():
			p.StopReceivingUpdates()
			b.Wait()
			return
		case u, ok := <-updates:
			if !ok {
				b.Wait()
				return
			}
			b.Submit(u)
		}
	}
}

func (b *Bot) Wait() {
	b.dispatcher.Wait()
}

// RunJanitor drops idle sessions every interval until ctx is cancelled.
func (b *Bot) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl < 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sweep(ttl)
		}
	}
}

func (b *Bot) sweep(ttl time.Duration) {
	for _, id := range b.sessions.Expired(ttl) {
		// recheck on the user's queue, an update may have touched the session since
		b.dispatcher.Do(id, func(context.Context) {
			s, ok := b.sessions.TakeExpired(id, ttl)
			if !ok {
				return
			}
			b.machine.Discard(s, "expired")
			b.log.Info("🧹 Dropped idle session", zap.Int64("user_id", id))
		})
	}
}

type nopAnalytics struct{}

func (nopAnalytics) Identify(context.Context, models.User)                  {}
func (nopAnalytics) Comment(context.Context, int64, string, string)         {}
func (nopAnalytics) Track(context.Context, int64, models.ActionType, map[string]any) {}
func (nopAnalytics) Feedback(context.Context, int64, string, *int, *string) {}
