package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-cv-bot/internal/models"
)

// flakyBackend wraps a real backend and fails while broken is set.
type flakyBackend struct {
	Backend
	broken bool
	puts   int
	gets   int
}

func (f *flakyBackend) Put(ctx context.Context, id int64, data []byte, at time.Time) error {
	f.puts++
	if f.broken {
		return errors.New("database or disk is full")
	}
	return f.Backend.Put(ctx, id, data, at)
}

func (f *flakyBackend) Get(ctx context.Context, id int64) ([]byte, error) {
	f.gets++
	if f.broken {
		return nil, errors.New("database disk image is malformed")
	}
	return f.Backend.Get(ctx, id)
}

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cv_bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func namedDraft(name string) *models.Draft {
	d := models.NewDraft()
	d.Name = name
	d.Skills = []string{"Go"}
	return d
}

func TestSaveOverwrites(t *testing.T) {
	tests := []struct {
		name    string
		primary func(t *testing.T) Backend
	}{
		{name: "primary", primary: func(t *testing.T) Backend { return openSQLite(t) }},
		{name: "fallback", primary: func(t *testing.T) Backend { return nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := New(tt.primary(t), filepath.Join(t.TempDir(), "fallback.json"), nil)

			require.NoError(t, s.Save(ctx, 1, namedDraft("A")))
			require.NoError(t, s.Save(ctx, 1, namedDraft("B")))

			got, err := s.Load(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, namedDraft("B"), got)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	s := New(openSQLite(t), filepath.Join(t.TempDir(), "fallback.json"), nil)
	got, err := s.Load(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, s.Degraded())
}

func TestFallbackIsOneWay(t *testing.T) {
	ctx := context.Background()
	primary := &flakyBackend{Backend: openSQLite(t)}
	s := New(primary, filepath.Join(t.TempDir(), "fallback.json"), nil)

	require.NoError(t, s.Save(ctx, 1, namedDraft("old")))

	primary.broken = true
	require.NoError(t, s.Save(ctx, 1, namedDraft("new")))
	assert.True(t, s.Degraded())

	primary.broken = false
	putsBefore, getsBefore := primary.puts, primary.gets
	require.NoError(t, s.Save(ctx, 2, namedDraft("other")))

	got, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
	assert.True(t, s.Degraded())
	assert.Equal(t, putsBefore, primary.puts)
	assert.Equal(t, getsBefore, primary.gets)
}

func TestReadFailureSwitchesMode(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fallback := filepath.Join(dir, "fallback.json")
	seed, err := OpenFile(fallback)
	require.NoError(t, err)
	data, err := json.Marshal(namedDraft("from file"))
	require.NoError(t, err)
	require.NoError(t, seed.Put(ctx, 5, data, time.Now()))

	primary := &flakyBackend{Backend: openSQLite(t), broken: true}
	s := New(primary, fallback, nil)

	got, err := s.Load(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "from file", got.Name)
	assert.True(t, s.Degraded())
}

func TestFallbackFileFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "fallback.json")
	s := New(nil, path, nil)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, s.Save(ctx, 7, namedDraft("Ann")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var file map[string]struct {
		Data        models.Draft `json:"data"`
		LastUpdated string       `json:"last_updated"`
	}
	require.NoError(t, json.Unmarshal(raw, &file))
	assert.Equal(t, "Ann", file["7"].Data.Name)
	assert.Equal(t, "2026-01-02T03:04:05Z", file["7"].LastUpdated)

	reopened := New(nil, path, nil)
	got, err := reopened.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
}

func TestCorruptFallbackFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := New(nil, path, nil)
	require.NoError(t, s.Save(context.Background(), 1, namedDraft("x")))

	assert.FileExists(t, path+".corrupt")
	got, err := s.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Name)
}

func TestCallerContextErrorKeepsPrimary(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, stop := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer stop()

	tests := []struct {
		name string
		ctx  context.Context
		want error
	}{
		{name: "cancelled", ctx: cancelled, want: context.Canceled},
		{name: "deadline exceeded", ctx: expired, want: context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := filepath.Join(t.TempDir(), "fallback.json")
			s := New(openSQLite(t), fallback, nil)

			err := s.Save(tt.ctx, 1, namedDraft("late"))
			assert.ErrorIs(t, err, tt.want)
			_, err = s.Load(tt.ctx, 1)
			assert.ErrorIs(t, err, tt.want)

			assert.False(t, s.Degraded())
			assert.NoFileExists(t, fallback)

			require.NoError(t, s.Save(context.Background(), 1, namedDraft("saved")))
			got, err := s.Load(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, "saved", got.Name)
		})
	}
}
