// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package storage keeps the report files fetched from upstream and reads
// them back as tables.
//
// Report files live flat in one data directory under the names the
// dashboard has always used (customer_profile.csv, gate_flow.xlsx, ...).
// Writes go through a temporary file and a rename so a reader never sees a
// half written report. A badger backed Manifest records when each file was
// fetched and for which range.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingFiles is matched by MissingFilesError through errors.Is.
var ErrMissingFiles = errors.New("report files not found")

// ErrUnreadable wraps parse failures of a report file that exists.
var ErrUnreadable = errors.New("report file unreadable")

// MissingFilesError lists report files that have not been fetched yet.
type MissingFilesError struct {
	Files []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("report files not found: %s; run a refresh first", strings.Join(e.Files, ", "))
}

// Is makes errors.Is(err, ErrMissingFiles) work.
func (e *MissingFilesError) Is(target error) bool {
	return target == ErrMissingFiles
}

// Store is the data directory.
type Store struct {
	dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data directory is empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the absolute location of a report file. name must be a bare
// file name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

// Exists reports whether name is present.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

// Missing returns the subset of names that are not present.
func (s *Store) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !s.Exists(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Require returns a *MissingFilesError when any of names is absent.
func (s *Store) Require(names ...string) error {
	if missing := s.Missing(names...); len(missing) > 0 {
		return &MissingFilesError{Files: missing}
	}
	return nil
}

// WriteFile replaces name atomically with data.
func (s *Store) WriteFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	tmpName = ""
	return nil
}

// ReadFile returns the raw bytes of name.
func (s *Store) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &MissingFilesError{Files: []string{name}}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
