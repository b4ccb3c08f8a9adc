package interview

import (
	"sync"
	"time"

	"go-cv-bot/internal/models"
)

// Session is the conversation context of one user.
type Session struct {
	UserID int64
	Draft  *models.Draft
	State  State
	// Editing routes the next successful capture back to Review.
	Editing   bool
	UpdatedAt time.Time
}

// Store maps user identities to their live sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

func (s *Store) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Put stores sess and marks it as touched now.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.UpdatedAt = s.now()
	s.sessions[sess.UserID] = sess
}

func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Expired lists the users whose sessions have been idle longer than ttl.
// A negative ttl keeps every session.
func (s *Store) Expired(ttl time.Duration) []int64 {
	if ttl < 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for id, sess := range s.sessions {
		if s.idle(sess, ttl) {
			ids = append(ids, id)
		}
	}
	return ids
}

// TakeExpired removes and returns the session of userID only if it is
// still idle longer than ttl. A session touched since Expired is kept.
func (s *Store) TakeExpired(userID int64, ttl time.Duration) (*Session, bool) {
	if ttl < 0 {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok || !s.idle(sess, ttl) {
		return nil, false
	}
	delete(s.sessions, userID)
	return sess, true
}

func (s *Store) idle(sess *Session, ttl time.Duration) bool {
	return sess.UpdatedAt.Before(s.now().Add(-ttl))
}
