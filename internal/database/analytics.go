package database

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-cv-bot/internal/models"
)

// Recorder is the write side of the analytics repository.
type Recorder interface {
	UpsertUser(ctx context.Context, u models.User) error
	LogAction(ctx context.Context, userID int64, action models.ActionType, data map[string]any) error
	StartSession(ctx context.Context, userID int64, username string) error
	EndSession(ctx context.Context, userID int64) error
	RecordFeedback(ctx context.Context, f models.Feedback) error
	SaveComment(ctx context.Context, c models.Comment) error
}

// Analytics records user activity without ever failing the caller.
// A nil recorder turns every call into a no-op.
type Analytics struct {
	rec     Recorder
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewAnalytics(rec Recorder, log *zap.Logger) *Analytics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analytics{rec: rec, log: log, timeout: 5 * time.Second, now: time.Now}
}

func (a *Analytics) Enabled() bool {
	return a != nil && a.rec != nil
}

func (a *Analytics) run(ctx context.Context, what string, userID int64, fn func(context.Context) error) {
	if !a.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		a.log.Warn("⚠️ analytics write failed",
			zap.String("op", what), zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Identify refreshes the user's profile and last-seen time.
func (a *Analytics) Identify(ctx context.Context, u models.User) {
	a.run(ctx, "upsert_user", u.ID, func(ctx context.Context) error {
		return a.rec.UpsertUser(ctx, u)
	})
}

// Track logs one action. Session boundaries also open or close a session row.
func (a *Analytics) Track(ctx context.Context, userID int64, action models.ActionType, data map[string]any) {
	a.run(ctx, string(action), userID, func(ctx context.Context) error {
		// actions reference users, so make sure the row exists
		if err := a.rec.UpsertUser(ctx, models.User{ID: userID}); err != nil {
			return err
		}
		if err := a.rec.LogAction(ctx, userID, action, data); err != nil {
			return err
		}
		switch action {
		case models.ActionSessionStarted:
			username, _ := data["username"].(string)
			return a.rec.StartSession(ctx, userID, username)
		case models.ActionCVGenerated, models.ActionSessionCancelled:
			return a.rec.EndSession(ctx, userID)
		}
		return nil
	})
}

func (a *Analytics) Feedback(ctx context.Context, userID int64, username string, rating *int, comments *string) {
	a.run(ctx, "feedback", userID, func(ctx context.Context) error {
		if err := a.rec.UpsertUser(ctx, models.User{ID: userID, Username: username}); err != nil {
			return err
		}
		return a.rec.RecordFeedback(ctx, models.Feedback{
			UserID:   userID,
			Username: username,
			Rating:   rating,
			Comments: comments,
		})
	})
}

func (a *Analytics) Comment(ctx context.Context, userID int64, username, text string) {
	a.run(ctx, "comment", userID, func(ctx context.Context) error {
		return a.rec.SaveComment(ctx, models.Comment{
			UserID:    userID,
			Username:  username,
			Comment:   text,
			Timestamp: a.now(),
		})
	})
}
