package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"resume-tailor/resume/edits"
)

// Store is the persisted edit set a single job round-trips through during resolution.
type Store interface {
	Path() string
	Save(set edits.Set) error
	Load() (edits.Set, error)
	Discard() error
}

// FileStore keeps the edit set as an indented JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Save writes the set, creating parent directories as needed.
func (s *FileStore) Save(set edits.Set) error {
	data, err := edits.Encode(set)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create edits dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write edits: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace edits: %w", err)
	}
	return nil
}

// Load reads and decodes the file.
func (s *FileStore) Load() (edits.Set, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return edits.Set{}, err
	}
	return edits.Decode(data)
}

// Discard removes the file. A missing file is not an error.
func (s *FileStore) Discard() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var _ Store = (*FileStore)(nil)
