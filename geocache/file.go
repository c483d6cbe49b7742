// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFile is the snapshot written next to the working directory.
const DefaultFile = "geo_cache.json"

// JSONFileStore keeps the snapshot as a single JSON object.
type JSONFileStore struct {
	Path string
}

// NewJSONFileStore creates a store for path.
func NewJSONFileStore(path string) *JSONFileStore {
	if path == "" {
		path = DefaultFile
	}

	return &JSONFileStore{Path: path}
}

// Name implements Store.
func (s *JSONFileStore) Name() string {
	return s.Path
}

// Load implements Store.
func (s *JSONFileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}

		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshaling cache file: %w", err)
	}

	return entries, nil
}

// Save implements Store. The snapshot is written to a temporary file first
// so an interrupted write never leaves a truncated cache behind.
func (s *JSONFileStore) Save(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	dir := filepath.Dir(s.Path)

	tmp, err := os.CreateTemp(dir, ".geo_cache-*.json")
	if err != nil {
		return fmt.Errorf("creating temporary cache file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		return errors.Join(
			fmt.Errorf("writing cache: %w", err),
			tmp.Close(),
			os.Remove(tmp.Name()),
		)
	}

	if err := tmp.Close(); err != nil {
		return errors.Join(fmt.Errorf("closing cache: %w", err), os.Remove(tmp.Name()))
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return errors.Join(fmt.Errorf("replacing cache file: %w", err), os.Remove(tmp.Name()))
	}

	return nil
}
