// Package storage persists the last identity used to join a room so the
// terminal client can rejoin without asking again.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/nfrund/gobychat/internal/domain"
)

// ErrEmptyIdentity is returned when a username or room is blank.
var ErrEmptyIdentity = errors.New("username and room must not be empty")

// IdentityStore reads and writes a single identity as JSON on an afero.Fs.
type IdentityStore struct {
	fs   afero.Fs
	path string
}

// NewIdentityStore creates a store for the file at path.
func NewIdentityStore(fs afero.Fs, path string) *IdentityStore {
	return &IdentityStore{fs: fs, path: path}
}

// Path returns the file the store writes to.
func (s *IdentityStore) Path() string { return s.path }

// Save writes id, replacing any previous identity.
func (s *IdentityStore) Save(id domain.Identity) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	// Write then rename so a crash never leaves a truncated file behind.
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace identity: %w", err)
	}
	return nil
}

// Load returns the saved identity. ok is false when nothing was saved.
func (s *IdentityStore) Load() (id domain.Identity, ok bool, err error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Identity{}, false, nil
	}
	if err != nil {
		return domain.Identity{}, false, fmt.Errorf("read identity: %w", err)
	}
	if err := json.Unmarshal(data, &id); err != nil {
		return domain.Identity{}, false, fmt.Errorf("decode identity: %w", err)
	}
	if id.Username == "" || id.Room == "" {
		return domain.Identity{}, false, nil
	}
	return id, true, nil
}

// Clear forgets the saved identity. Clearing an empty store is not an error.
func (s *IdentityStore) Clear() error {
	err := s.fs.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}

// Normalize trims user input and puts it in Unicode NFC form so that the
// same name typed on different keyboards maps to the same room or user.
func Normalize(username, room string) (domain.Identity, error) {
	id := domain.Identity{
		Username: norm.NFC.String(strings.TrimSpace(username)),
		Room:     norm.NFC.String(strings.TrimSpace(room)),
	}
	if id.Username == "" || id.Room == "" {
		return domain.Identity{}, ErrEmptyIdentity
	}
	return id, nil
}
