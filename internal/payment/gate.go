package payment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
)

const (
	settingsFile  = "payment_settings.json"
	paidUsersFile = "paid_users.json"
)

type Settings struct {
	Enabled bool `json:"enabled"`
}

// Gate keeps the payment-required flag and the paid user list as two
// small JSON files. Every mutation is idempotent.
type Gate struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Gate, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create payment dir: %w", err)
	}
	return &Gate{dir: dir}, nil
}

func (g *Gate) Settings() (Settings, error) {
	var s Settings
	err := g.read(settingsFile, &s)
	return s, err
}

func (g *Gate) Required() (bool, error) {
	s, err := g.Settings()
	return s.Enabled, err
}

func (g *Gate) SetRequired(enabled bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.Settings()
	if err != nil {
		return err
	}
	if s.Enabled == enabled {
		return nil
	}
	s.Enabled = enabled
	return g.write(settingsFile, s)
}

func (g *Gate) IsPaid(userID int64) (bool, error) {
	users, err := g.ListPaid()
	if err != nil {
		return false, err
	}
	return slices.Contains(users, strconv.FormatInt(userID, 10)), nil
}

// MarkPaid reports whether the list changed.
func (g *Gate) MarkPaid(userID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	users, err := g.ListPaid()
	if err != nil {
		return false, err
	}
	id := strconv.FormatInt(userID, 10)
	if slices.Contains(users, id) {
		return false, nil
	}
	return true, g.write(paidUsersFile, append(users, id))
}

// MarkUnpaid reports whether the list changed.
func (g *Gate) MarkUnpaid(userID int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	users, err := g.ListPaid()
	if err != nil {
		return false, err
	}
	id := strconv.FormatInt(userID, 10)
	i := slices.Index(users, id)
	if i < 0 {
		return false, nil
	}
	return true, g.write(paidUsersFile, slices.Delete(users, i, i+1))
}

func (g *Gate) ListPaid() ([]string, error) {
	users := []string{}
	if err := g.read(paidUsersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Allowed reports whether userID may start a session: either payment is
// not required or the user is on the paid list.
func (g *Gate) Allowed(userID int64) (bool, error) {
	required, err := g.Required()
	if err != nil {
		return false, err
	}
	if !required {
		return true, nil
	}
	return g.IsPaid(userID)
}

func (g *Gate) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(g.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (g *Gate) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(g.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
