// Package feedback runs the short rating and comment conversation started by /feedback.
package feedback

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go-cv-bot/internal/interview"
	"go-cv-bot/internal/models"
)

const (
	actionRatePrefix = "rate_"
	actionText       = "text_feedback"

	msgPrompt    = "📝 Please provide your feedback:\n\n1. Rate your experience (1-5 stars)\n2. Or send text feedback directly"
	msgTypeText  = "Please type your feedback message:"
	msgThanks    = "✅ Thank you for your valuable feedback!\nWe appreciate your time and will use this to improve our service."
	msgRated     = "Thank you for your rating!"
	msgCancelled = "Feedback collection cancelled."
)

// Recorder stores feedback. Calls must not fail the conversation.
type Recorder interface {
	Track(ctx context.Context, userID int64, action models.ActionType, data map[string]any)
	Feedback(ctx context.Context, userID int64, username string, rating *int, comments *string)
}

type stage int

const (
	stageRating stage = iota
	stageComments
)

type flow struct {
	stage  stage
	rating *int
}

// Collector keeps one feedback conversation per user.
type Collector struct {
	mu    sync.Mutex
	flows map[int64]*flow
	rec   Recorder
}

func NewCollector(rec Recorder) *Collector {
	return &Collector{flows: make(map[int64]*flow), rec: rec}
}

func Menu() interview.Menu {
	row := func(from, to int) []interview.Button {
		var b []interview.Button
		for n := from; n <= to; n++ {
			b = append(b, interview.Button{
				Text: fmt.Sprintf("%s Rate %d", strings.Repeat("⭐", n), n),
				Data: actionRatePrefix + strconv.Itoa(n),
			})
		}
		return b
	}
	return interview.Menu{
		row(1, 3),
		row(4, 5),
		{{Text: "✏️ Text Feedback", Data: actionText}},
	}
}

// Begin starts or restarts the conversation for userID.
func (c *Collector) Begin(ctx context.Context, userID int64) []interview.Message {
	c.mu.Lock()
	c.flows[userID] = &flow{stage: stageRating}
	c.mu.Unlock()

	c.rec.Track(ctx, userID, models.ActionFeedbackInitiated, nil)
	return []interview.Message{{Text: msgPrompt, Menu: Menu()}}
}

func (c *Collector) Active(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flows[userID]
	return ok
}

// Handle consumes ev when it belongs to the user's feedback conversation.
// It reports false for events the conversation does not understand, after
// ending it, so the caller can route them elsewhere.
func (c *Collector) Handle(ctx context.Context, userID int64, username string, ev interview.Event) (bool, []interview.Message) {
	c.mu.Lock()
	f, ok := c.flows[userID]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}

	if ev.Kind == interview.EventCommand {
		switch ev.Text {
		case "cancel":
			c.end(userID)
			c.rec.Track(ctx, userID, models.ActionFeedbackCancelled, nil)
			return true, []interview.Message{{Text: msgCancelled}}
		case "skip":
			if f.stage == stageComments {
				c.end(userID)
				c.rec.Track(ctx, userID, models.ActionFeedbackWithoutComments, nil)
				if f.rating != nil {
					c.rec.Feedback(ctx, userID, username, f.rating, nil)
				}
				return true, []interview.Message{{Text: msgRated}}
			}
		}
		c.end(userID)
		return false, nil
	}

	switch ev.Kind {
	case interview.EventAction:
		n, isRating := parseRating(ev.Text)
		if !isRating && ev.Text != actionText {
			c.end(userID)
			return false, nil
		}
		if f.stage != stageRating {
			// stale tap on the rating menu
			return true, nil
		}
		if ev.Text == actionText {
			f.stage = stageComments
			return true, []interview.Message{{Text: msgTypeText, Replace: true}}
		}
		f.rating = &n
		f.stage = stageComments
		return true, []interview.Message{{
			Text:    fmt.Sprintf("Thanks for your %d star rating! Would you like to add any comments? (or /skip to finish)", n),
			Replace: true,
		}}

	case interview.EventText:
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return true, nil
		}
		c.end(userID)
		c.rec.Feedback(ctx, userID, username, f.rating, &text)
		return true, []interview.Message{{Text: msgThanks}}
	}

	c.end(userID)
	return false, nil
}

func (c *Collector) end(userID int64) {
	c.mu.Lock()
	delete(c.flows, userID)
	c.mu.Unlock()
}

func parseRating(data string) (int, bool) {
	s, ok := strings.CutPrefix(data, actionRatePrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}
