package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-cv-bot/internal/models"
)

type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// IMPORTANT: Supabase connection pooler (PgBouncer in Transaction mode)
	// does not support prepared statements easily. We MUST disable the statement cache.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT PRIMARY KEY,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_actions (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(user_id),
		action_type TEXT NOT NULL,
		action_data JSONB,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_feedback (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(user_id),
		username TEXT,
		rating INTEGER,
		comments TEXT,
		timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id SERIAL PRIMARY KEY,
		user_id BIGINT,
		username TEXT,
		comment TEXT,
		timestamp TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id SERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(user_id),
		username TEXT,
		session_start TIMESTAMP NOT NULL,
		session_end TIMESTAMP,
		actions_count INTEGER DEFAULT 0
	)`,
}

// Migrate creates the analytics tables when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// ---------------- USER OPERATIONS ----------------

// UpsertUser records a user, keeping known names when the new ones are empty.
func (r *Repository) UpsertUser(ctx context.Context, u models.User) error {
	query := `
		INSERT INTO users (user_id, username, first_name, last_name)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (user_id)
		DO UPDATE SET
			username = COALESCE(EXCLUDED.username, users.username),
			first_name = COALESCE(EXCLUDED.first_name, users.first_name),
			last_name = COALESCE(EXCLUDED.last_name, users.last_name),
			last_seen = CURRENT_TIMESTAMP`
	if _, err := r.db.Exec(ctx, query, u.ID, u.Username, u.FirstName, u.LastName); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// ---------------- ACTION OPERATIONS ----------------

func (r *Repository) LogAction(ctx context.Context, userID int64, action models.ActionType, data map[string]any) error {
	var payload any
	if len(data) > 0 {
		payload = data
	}
	_, err := r.db.Exec(ctx,
		"INSERT INTO user_actions (user_id, action_type, action_data) VALUES ($1, $2, $3)",
		userID, string(action), payload)
	if err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}
	return nil
}

// ---------------- SESSION OPERATIONS ----------------

func (r *Repository) StartSession(ctx context.Context, userID int64, username string) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO user_sessions (user_id, username, session_start) VALUES ($1, NULLIF($2, ''), $3)",
		userID, username, time.Now())
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// EndSession closes the user's latest open session and counts its actions.
func (r *Repository) EndSession(ctx context.Context, userID int64) error {
	query := `
		UPDATE user_sessions s
		SET session_end = CURRENT_TIMESTAMP,
			actions_count = (
				SELECT COUNT(*) FROM user_actions a
				WHERE a.user_id = s.user_id AND a.timestamp >= s.session_start
			)
		WHERE s.id = (
			SELECT id FROM user_sessions
			WHERE user_id = $1 AND session_end IS NULL
			ORDER BY session_start DESC
			LIMIT 1
		)`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// ---------------- FEEDBACK OPERATIONS ----------------

func (r *Repository) RecordFeedback(ctx context.Context, f models.Feedback) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO user_feedback (user_id, username, rating, comments) VALUES ($1, NULLIF($2, ''), $3, $4)",
		f.UserID, f.Username, f.Rating, f.Comments)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	return nil
}

func (r *Repository) SaveComment(ctx context.Context, c models.Comment) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO comments (user_id, username, comment, timestamp) VALUES ($1, $2, $3, $4)",
		c.UserID, c.Username, c.Comment, c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save comment: %w", err)
	}
	return nil
}

// ---------------- REPORTS ----------------

// DailyActiveUsers counts distinct users per day over the last days days, newest first.
func (r *Repository) DailyActiveUsers(ctx context.Context, days int) ([]models.DailyActive, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DATE(timestamp) AS day, COUNT(DISTINCT user_id) AS active_users
		FROM user_actions
		WHERE timestamp >= $1
		GROUP BY day
		ORDER BY day DESC
		LIMIT $2`, time.Now().AddDate(0, 0, -days), days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily active users: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DailyActive, error) {
		var d models.DailyActive
		err := row.Scan(&d.Day, &d.Users)
		return d, err
	})
}

func (r *Repository) ConversionFunnel(ctx context.Context) (*models.Funnel, error) {
	var f models.Funnel
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(DISTINCT CASE WHEN action_type = 'session_started' THEN user_id END),
			COUNT(DISTINCT CASE WHEN action_type = 'profile_completed' THEN user_id END),
			COUNT(DISTINCT CASE WHEN action_type = 'cv_generated' THEN user_id END)
		FROM user_actions`).Scan(&f.Started, &f.CompletedProfile, &f.GeneratedCV)
	if err != nil {
		return nil, fmt.Errorf("failed to query funnel: %w", err)
	}
	return &f, nil
}

func (r *Repository) FeedbackStats(ctx context.Context) (*models.FeedbackStats, error) {
	var s models.FeedbackStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), AVG(rating)::float8, COUNT(comments)
		FROM user_feedback`).Scan(&s.Total, &s.AverageRating, &s.WithComments)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback stats: %w", err)
	}
	return &s, nil
}

func (r *Repository) MostActiveUsers(ctx context.Context, limit int) ([]models.ActiveUser, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.user_id, COALESCE(u.username, ''), COUNT(a.id) AS action_count
		FROM users u
		JOIN user_actions a ON u.user_id = a.user_id
		GROUP BY u.user_id, u.username
		ORDER BY action_count DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ActiveUser, error) {
		var u models.ActiveUser
		err := row.Scan(&u.UserID, &u.Username, &u.ActionCount)
		return u, err
	})
}

func (r *Repository) RecentFeedback(ctx context.Context, limit int) ([]models.Feedback, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, COALESCE(username, ''), rating, comments, timestamp
		FROM user_feedback
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Feedback, error) {
		var f models.Feedback
		err := row.Scan(&f.ID, &f.UserID, &f.Username, &f.Rating, &f.Comments, &f.Timestamp)
		return f, err
	})
}
