package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type fileRecord struct {
	Data        json.RawMessage `json:"data"`
	LastUpdated string          `json:"last_updated"`
}

// FileStore is the JSON file used when the database is unavailable.
// Callers serialize access.
type FileStore struct {
	path    string
	records map[string]fileRecord
}

// OpenFile loads the file at path. A missing file starts empty.
func OpenFile(path string) (*FileStore, error) {
	fs := &FileStore{path: path, records: map[string]fileRecord{}}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fs.records); err != nil {
			return nil, fmt.Errorf("could not parse %s: %w", path, err)
		}
	}
	return fs, nil
}

func (f *FileStore) Put(_ context.Context, userID int64, data []byte, at time.Time) error {
	f.records[strconv.FormatInt(userID, 10)] = fileRecord{
		Data:        json.RawMessage(data),
		LastUpdated: at.UTC().Format(time.RFC3339),
	}
	return f.flush()
}

func (f *FileStore) Get(_ context.Context, userID int64) ([]byte, error) {
	rec, ok := f.records[strconv.FormatInt(userID, 10)]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Data, nil
}

// flush rewrites the whole file through a temp file and rename.
func (f *FileStore) flush() error {
	data, err := json.MarshalIndent(f.records, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode fallback store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}
