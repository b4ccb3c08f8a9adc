package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-cv-bot/internal/metrics"
	"go-cv-bot/internal/models"
)

var ErrNotFound = errors.New("not found")

// Backend stores raw draft bytes per user.
type Backend interface {
	Put(ctx context.Context, userID int64, data []byte, at time.Time) error
	Get(ctx context.Context, userID int64) ([]byte, error)
}

// DraftStore saves the latest draft per user. It writes to the primary
// backend until the first failure and then to the fallback file for the
// rest of the process lifetime. One mutex covers the mode and every read
// and write so both paths always agree on where data lives.
type DraftStore struct {
	mu           sync.Mutex
	primary      Backend
	fallbackPath string
	fallback     *FileStore
	log          *zap.Logger
	now          func() time.Time
}

// New returns a store over primary. A nil primary starts in fallback mode.
func New(primary Backend, fallbackPath string, log *zap.Logger) *DraftStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &DraftStore{primary: primary, fallbackPath: fallbackPath, log: log, now: time.Now}
}

func (s *DraftStore) Save(ctx context.Context, userID int64, d *models.Draft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("could not encode draft: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now()
	if !s.degradedLocked() {
		err := s.primary.Put(ctx, userID, data, at)
		if err == nil {
			return nil
		}
		if callerGone(err) {
			return fmt.Errorf("could not save draft for %d: %w", userID, err)
		}
		s.degrade(err)
	}

	fb, err := s.fallbackLocked()
	if err != nil {
		return err
	}
	return fb.Put(ctx, userID, data, at)
}

// Load returns the latest draft for userID, or nil when there is none.
func (s *DraftStore) Load(ctx context.Context, userID int64) (*models.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	var err error
	if !s.degradedLocked() {
		data, err = s.primary.Get(ctx, userID)
		if callerGone(err) {
			return nil, fmt.Errorf("could not load draft for %d: %w", userID, err)
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.degrade(err)
		}
	}
	if s.degradedLocked() {
		fb, ferr := s.fallbackLocked()
		if ferr != nil {
			return nil, ferr
		}
		data, err = fb.Get(ctx, userID)
	}

	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d := &models.Draft{}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("could not decode draft for %d: %w", userID, err)
	}
	d.Normalize()
	return d, nil
}

// Degraded reports whether the store has switched to the fallback file.
func (s *DraftStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degradedLocked()
}

func (s *DraftStore) degradedLocked() bool {
	return s.primary == nil || s.fallback != nil
}

// callerGone reports errors caused by the caller's context rather than
// by the primary backend.
func callerGone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// degrade switches to the fallback for good. The primary is dropped so
// nothing can route back to it.
func (s *DraftStore) degrade(cause error) {
	s.log.Warn("⚠️ Primary storage failed, switching to fallback file",
		zap.String("path", s.fallbackPath), zap.Error(cause))
	s.primary = nil
	metrics.StorageFallback.Set(1)
}

func (s *DraftStore) fallbackLocked() (*FileStore, error) {
	if s.fallback != nil {
		return s.fallback, nil
	}
	fb, err := OpenFile(s.fallbackPath)
	if err != nil {
		// keep the unreadable file aside and start fresh
		s.log.Error("❌ Failed to load fallback file", zap.String("path", s.fallbackPath), zap.Error(err))
		if rerr := os.Rename(s.fallbackPath, s.fallbackPath+".corrupt"); rerr != nil && !os.IsNotExist(rerr) {
			return nil, fmt.Errorf("could not move aside %s: %w", s.fallbackPath, rerr)
		}
		fb = &FileStore{path: s.fallbackPath, records: map[string]fileRecord{}}
	}
	s.fallback = fb
	metrics.StorageFallback.Set(1)
	return fb, nil
}
