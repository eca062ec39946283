package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load never fails: a missing, unreadable or malformed manifest is replaced
// by an empty one.
func (s *Store) Load() *Manifest {
	m, err := s.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("Manifest not found, starting empty", "path", s.path)
		return New()
	case err != nil:
		slog.Warn("Manifest unusable, starting empty", "path", s.path, "error", err)
		return New()
	}

	slog.Debug("Manifest loaded", "path", s.path, "posts", len(m.Posts))
	return m
}

func (s *Store) read() (*Manifest, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	raw, ok := root["posts"]
	if !ok {
		return nil, fmt.Errorf("%w: missing posts", ErrCorrupt)
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: posts is not a list", ErrCorrupt)
	}

	m := New()
	if err := json.Unmarshal(raw, &m.Posts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return m, nil
}

// Save sorts the posts by date_iso, newest first, and replaces the manifest
// file atomically. Posts sharing a date keep their relative order.
func (s *Store) Save(m *Manifest) error {
	if m.Posts == nil {
		m.Posts = []Post{}
	}

	sort.SliceStable(m.Posts, func(i, j int) bool {
		return m.Posts[i].DateISO > m.Posts[j].DateISO
	})

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	slog.Debug("Manifest saved", "path", s.path, "posts", len(m.Posts))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
