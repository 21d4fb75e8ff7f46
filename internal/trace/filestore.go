package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists records as one pretty-printed JSON array, newest first.
// Every append rewrites the whole file under a mutex and swaps it in with a
// rename, so concurrent appends never lose records and readers never see a
// partial file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file and its directory
// are created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// List returns an empty slice when the file is missing or unreadable.
func (s *FileStore) List(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		slog.Warn("read traces file", "path", s.path, "error", err)
		return []Record{}, nil
	}
	return recs, nil
}

// Append refuses to write when the existing file cannot be read or parsed,
// leaving it untouched.
func (s *FileStore) Append(_ context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return fmt.Errorf("append trace %s: %w", rec.ID, err)
	}
	if containsID(recs, rec.ID) {
		return ErrDuplicateID
	}
	return s.write(append([]Record{rec}, recs...))
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write([]Record{})
}

// load treats a missing file as empty.
func (s *FileStore) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read traces file: %w", err)
	}
	var recs []Record
	if err = json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse traces file: %w", err)
	}
	if recs == nil {
		return []Record{}, nil
	}
	return recs, nil
}

func (s *FileStore) write(recs []Record) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal traces: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create traces dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".call-traces-*.json")
	if err != nil {
		return fmt.Errorf("create temp traces file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write traces: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync traces: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close traces: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace traces file: %w", err)
	}
	return nil
}
