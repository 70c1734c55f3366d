package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultMaxRecent = 10

// DefaultRecentPath returns the location of the recently used mesh list.
// It is kept apart from the config file so runs never rewrite user settings.
func DefaultRecentPath() string {
	return filepath.Join(DefaultConfigDir(), "recent.json")
}

// AddRecentMesh puts mesh at the front of list, removing an older entry for
// the same path and keeping at most limit entries.
func AddRecentMesh(list []string, mesh string, limit int) []string {
	if limit <= 0 {
		limit = defaultMaxRecent
	}
	out := []string{mesh}
	for _, p := range list {
		if p != mesh {
			out = append(out, p)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// LoadRecentMeshes reads the recent mesh list. A missing file gives an
// empty list.
func LoadRecentMeshes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse recent meshes: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// SaveRecentMeshes writes the recent mesh list.
func SaveRecentMeshes(path string, list []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RememberMesh records mesh as the most recently used one.
func RememberMesh(path, mesh string, limit int) error {
	list, err := LoadRecentMeshes(path)
	if err != nil {
		return err
	}
	return SaveRecentMeshes(path, AddRecentMesh(list, mesh, limit))
}
