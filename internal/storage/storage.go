package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"digimess/internal/clock"
	"digimess/internal/menu"
	"digimess/internal/menudata"
)

const patchExt = ".jsonc"

// PatchStore provides file-based storage for dated override patches, the
// overrides/ directory of a dataset.
type PatchStore struct {
	basePath string
}

// NewPatchStore creates a new PatchStore and ensures the base directory exists.
func NewPatchStore(basePath string) (*PatchStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &PatchStore{basePath: basePath}, nil
}

// ForDataset opens the overrides directory of a dataset.
func ForDataset(dataDir string) (*PatchStore, error) {
	return NewPatchStore(filepath.Join(dataDir, menudata.OverridesDir))
}

func (s *PatchStore) path(date string) (string, error) {
	if _, err := clock.ParseDateKey(date); err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, date+patchExt), nil
}

// Save writes patch as the override for date, replacing any existing file.
func (s *PatchStore) Save(date string, patch *menu.Node) error {
	path, err := s.path(date)
	if err != nil {
		return err
	}
	if patch.Kind() != menu.KindObject {
		return fmt.Errorf("override patch must be an object")
	}

	data, err := json.MarshalIndent(patch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w", err)
	}
	data = append(data, '\n')

	// Write then rename so a reader never sees half a file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write patch file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace patch file: %w", err)
	}
	return nil
}

// Merge deep-merges patch into the override already stored for date, or
// saves it as-is when there is none.
func (s *PatchStore) Merge(date string, patch *menu.Node) (*menu.Node, error) {
	existing, err := s.Load(date)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	merged := patch.Clone()
	if existing != nil {
		merged = menu.Merge(existing, patch)
	}
	if err := s.Save(date, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Load reads the override for date.
func (s *PatchStore) Load(date string) (*menu.Node, error) {
	path, err := s.path(date)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read patch file: %w", err)
	}
	return menudata.ReadNode(path)
}

// Exists checks whether an override is stored for date.
func (s *PatchStore) Exists(date string) bool {
	path, err := s.path(date)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// List returns the dates with a stored override, oldest first.
func (s *PatchStore) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*"+patchExt))
	if err != nil {
		return nil, fmt.Errorf("failed to glob patch files: %w", err)
	}

	var dates []string
	for _, m := range matches {
		date := strings.TrimSuffix(filepath.Base(m), patchExt)
		if _, err := clock.ParseDateKey(date); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// Remove deletes the override for date.
func (s *PatchStore) Remove(date string) error {
	path, err := s.path(date)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove patch file %s: %w", path, err)
	}
	return nil
}
