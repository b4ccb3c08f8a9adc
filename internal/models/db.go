package models

import (
	"time"
)

type ActionType string

const (
	ActionSessionStarted           ActionType = "session_started"
	ActionProfileCompleted         ActionType = "profile_completed"
	ActionCVGenerated              ActionType = "cv_generated"
	ActionFeedbackInitiated        ActionType = "feedback_initiated"
	ActionFeedbackWithoutComments  ActionType = "feedback_completed_without_comments"
	ActionFeedbackCancelled        ActionType = "feedback_cancelled"
	ActionSessionCancelled         ActionType = "session_cancelled"
	ActionDocumentGenerationFailed ActionType = "cv_generation_failed"
)

// User is the Telegram account behind a session as seen by analytics.
type User struct {
	ID        int64     `json:"user_id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	LastSeen  time.Time `json:"last_seen"`
}

type UserAction struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"user_id"`
	ActionType ActionType     `json:"action_type"`
	ActionData map[string]any `json:"action_data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type Feedback struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Rating    *int      `json:"rating,omitempty"`
	Comments  *string   `json:"comments,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Comment struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Comment   string    `json:"comment"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyActive is one row of the daily active users report.
type DailyActive struct {
	Day   time.Time `json:"date"`
	Users int       `json:"users"`
}

type Funnel struct {
	Started          int `json:"started"`
	CompletedProfile int `json:"completed_profile"`
	GeneratedCV      int `json:"generated_cv"`
}

type FeedbackStats struct {
	Total         int      `json:"total_feedback"`
	AverageRating *float64 `json:"average_rating,omitempty"`
	WithComments  int      `json:"with_comments"`
}

type ActiveUser struct {
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	ActionCount int    `json:"action_count"`
}
