// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
)

// Store reads and writes the persisted landscape state. The state file format is
// opaque to the installer chain beyond the installation.State shape.
type Store struct {
	fs   afero.Afero
	path string
}

// NewStore returns a store for the state file at the given path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: afero.Afero{Fs: fs}, path: path}
}

// Load reads the persisted state. An absent state file yields (nil, nil), marking a
// fresh install.
func (s *Store) Load() (*installation.State, error) {
	exists, err := s.fs.Exists(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to check for state file %q: %w", s.path, err)
	}
	if !exists {
		return nil, nil
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %q: %w", s.path, err)
	}

	state := &installation.State{}
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state file %q: %w", s.path, err)
	}

	return state, nil
}

// Save writes the given state, creating parent directories as needed.
func (s *Store) Save(state *installation.State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, os.FileMode(0o755)); err != nil {
			return fmt.Errorf("failed to create state directory %q: %w", dir, err)
		}
	}

	if err := s.fs.WriteFile(s.path, data, os.FileMode(0o600)); err != nil {
		return fmt.Errorf("failed to write state file %q: %w", s.path, err)
	}

	return nil
}

// LoadImports reads and unmarshals an imports file.
func LoadImports(fs afero.Fs, path string) (*installation.Imports, error) {
	data, err := afero.Afero{Fs: fs}.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read imports file %q: %w", path, err)
	}

	imports := &installation.Imports{}
	if err := yaml.Unmarshal(data, imports); err != nil {
		return nil, fmt.Errorf("failed to unmarshal imports file %q: %w", path, err)
	}

	return imports, nil
}
