package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/envlane/envlane/pkg/environment"
)

const snapshotFile = "state.json"

// FileStore persists one JSON snapshot per environment under
// <root>/<name>/state.json. Writes go through a temp file, fsync and
// rename so readers only ever observe a complete snapshot.
type FileStore struct {
	root string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the base directory of the store.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) snapshotPath(name environment.Name) string {
	return filepath.Join(s.root, string(name), snapshotFile)
}

// Save writes the snapshot atomically.
func (s *FileStore) Save(_ context.Context, state environment.ErasedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", state.Name(), err)
	}

	dir := filepath.Join(s.root, string(state.Name()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create environment directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, snapshotFile)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write temp snapshot %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to sync temp snapshot %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close temp snapshot %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads and decodes the snapshot for name. A missing snapshot is
// ErrNotFound; a present but undecodable one is a CorruptSnapshotError.
func (s *FileStore) Load(_ context.Context, name environment.Name) (environment.ErasedState, error) {
	path := s.snapshotPath(name)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return environment.ErasedState{}, fmt.Errorf("environment %q: %w", name, ErrNotFound)
		}
		return environment.ErasedState{}, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var state environment.ErasedState
	if err := json.Unmarshal(data, &state); err != nil {
		return environment.ErasedState{}, &CorruptSnapshotError{
			Name: string(name),
			Path: path,
			Err:  err,
		}
	}
	return state, nil
}

// List scans the store and returns every environment in name order.
// Damaged snapshots are returned as entries carrying the decode error.
func (s *FileStore) List(ctx context.Context) ([]ListEntry, error) {
	dirs, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read state directory %s: %w", s.root, err)
	}

	entries := []ListEntry{}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		name, err := environment.NewName(d.Name())
		if err != nil {
			// Not an environment directory.
			continue
		}
		state, err := s.Load(ctx, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			entries = append(entries, ListEntry{Name: name, Err: err})
			continue
		}
		entries = append(entries, ListEntry{Name: name, State: state})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Delete removes the environment's directory. Deleting an environment
// that does not exist is a no-op.
func (s *FileStore) Delete(_ context.Context, name environment.Name) error {
	dir := filepath.Join(s.root, string(name))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete environment directory %s: %w", dir, err)
	}
	return nil
}
