package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

type seenEntry struct {
	Key       string `json:"key"`
	Timestamp int64  `json:"timestamp"`
}

// Window remembers when a key was last let through and rejects it again
// until the window has passed. State survives restarts in a JSON file.
type Window struct {
	mu       sync.Mutex
	filePath string
	window   time.Duration
	seen     map[string]int64
	log      *zap.Logger
	now      func() time.Time
}

// NewWindow creates or loads a window cache stored as name inside cacheDir.
func NewWindow(cacheDir, name string, window time.Duration, log *zap.Logger) *Window {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn("⚠️ Failed to create cache directory", zap.Error(err))
	}
	w := &Window{
		filePath: filepath.Join(cacheDir, name),
		window:   window,
		seen:     make(map[string]int64),
		log:      log,
		now:      time.Now,
	}
	w.load()
	return w
}

// Allow reports whether key is outside the window and, if so, records it.
// Mutex is required because Go maps are NOT thread-safe
func (w *Window) Allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now().UnixMilli()
	if ts, ok := w.seen[key]; ok && now-ts < w.window.Milliseconds() {
		return false
	}
	w.seen[key] = now
	w.save()
	return true
}

func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

// load reads the cache from disk, dropping entries whose window expired
func (w *Window) load() {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			w.log.Warn("⚠️ Failed to read window cache", zap.String("path", w.filePath), zap.Error(err))
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		w.log.Warn("⚠️ Failed to parse window cache", zap.String("path", w.filePath), zap.Error(err))
		return
	}

	cutoff := w.now().UnixMilli() - w.window.Milliseconds()
	loaded := 0
	for _, e := range entries {
		if e.Timestamp > cutoff {
			w.seen[e.Key] = e.Timestamp
			loaded++
		}
	}
	w.log.Debug("📋 Loaded window cache", zap.Int("loaded", loaded), zap.Int("expired", len(entries)-loaded))
}

// save writes the live entries to disk, pruning expired ones
func (w *Window) save() {
	cutoff := w.now().UnixMilli() - w.window.Milliseconds()
	entries := make([]seenEntry, 0, len(w.seen))
	for key, ts := range w.seen {
		if ts <= cutoff {
			delete(w.seen, key)
			continue
		}
		entries = append(entries, seenEntry{Key: key, Timestamp: ts})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		w.log.Warn("⚠️ Failed to marshal window cache", zap.Error(err))
		return
	}
	if err := os.WriteFile(w.filePath, data, 0644); err != nil {
		w.log.Warn("⚠️ Failed to write window cache", zap.String("path", w.filePath), zap.Error(err))
	}
}
