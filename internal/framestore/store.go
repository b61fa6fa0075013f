package framestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/1broseidon/multiwin/internal/geometry"
)

// Store persists window frames as one JSON file per autosave name.
type Store struct {
	dir string
	mu  sync.Mutex
}

type record struct {
	Name  string        `json:"name"`
	Frame geometry.Rect `json:"frame"`
}

// DefaultDir returns ~/.config/multiwin/frames.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "multiwin", "frames"), nil
}

// New returns a store rooted at dir. The directory is created on first save.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// ValidateName rejects names that would escape the store directory.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("autosave name is required")
	}
	if strings.Contains(name, string(os.PathSeparator)) || name != filepath.Base(name) {
		return fmt.Errorf("invalid autosave name %q", name)
	}
	if name == "." || name == ".." || strings.Contains(name, "..") {
		return fmt.Errorf("invalid autosave name %q", name)
	}
	return nil
}

func (s *Store) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Load returns the stored frame for name. A missing slot is not an error.
func (s *Store) Load(name string) (geometry.Rect, bool, error) {
	path, err := s.path(name)
	if err != nil {
		return geometry.Rect{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return geometry.Rect{}, false, nil
		}
		return geometry.Rect{}, false, fmt.Errorf("failed to read frame %q: %w", name, err)
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return geometry.Rect{}, false, fmt.Errorf("failed to parse frame %q: %w", name, err)
	}
	return rec.Frame, true, nil
}

// Save writes frame under name.
func (s *Store) Save(name string, frame geometry.Rect) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create frame directory: %w", err)
	}
	data, err := json.MarshalIndent(record{Name: name, Frame: frame}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write frame %q: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write frame %q: %w", name, err)
	}
	return nil
}

// Delete removes the slot for name.
func (s *Store) Delete(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete frame %q: %w", name, err)
	}
	return nil
}

// List returns the stored autosave names, sorted.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(out)
	return out, nil
}
