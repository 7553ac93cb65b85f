// Package storage persists the accumulated clone data as a JSON file. It is
// the only place the process touches the data file; everything else works on
// an in-memory domain.Store passed through the pipeline.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/karthikredddy7github/github-clone-tracker/internal/domain"
)

// Load reads the store from path. A missing file is the bootstrap case and
// yields an empty store, not an error. A file that exists but cannot be
// parsed or fails validation is an error: starting fresh over unreadable
// history would overwrite it on the next save.
func Load(path string) (*domain.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewStore(), nil
		}
		return nil, fmt.Errorf("read store %s: %w", path, err)
	}

	store := new(domain.Store)
	if err := json.Unmarshal(data, store); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	// A hand-edited or legacy file may omit whole sections; keep the maps
	// usable either way.
	if store.Repositories == nil {
		store.Repositories = make(map[string]*domain.RepositoryHistory)
	}
	if store.Cumulative == nil {
		store.Cumulative = make(map[string]domain.CumulativeRecord)
	}
	for name, hist := range store.Repositories {
		if hist == nil {
			store.Repositories[name] = &domain.RepositoryHistory{DailyClones: make(map[string]domain.DailyRecord)}
			continue
		}
		if hist.DailyClones == nil {
			hist.DailyClones = make(map[string]domain.DailyRecord)
		}
	}
	if err := store.Validate(); err != nil {
		return nil, fmt.Errorf("store %s: %w", path, err)
	}
	return store, nil
}

// Save writes the store to path atomically: the JSON is written to a
// temporary file in the same directory, synced, and renamed into place, so an
// interrupted run leaves the previous file intact rather than a truncated
// one. The file is indented two spaces to stay diffable when committed.
func Save(path string, store *domain.Store) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".clone-data-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("set store file permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace store %s: %w", path, err)
	}
	return nil
}
