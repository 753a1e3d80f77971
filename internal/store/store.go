package store

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound indicates no expected-results file exists for a challenge.
var ErrNotFound = errors.New("expected results file not found")

const (
	challengesDir = "challenges"
	tmpDir        = "tmp"

	expectedExt = ".tsv"
)

// Store keeps challenge expected-results files on the local filesystem
// under a single root directory.
type Store struct {
	root string
}

// New prepares the store directories under root and returns the store.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("store root path is empty")
	}
	for _, dir := range []string{challengesDir, tmpDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// TempDir returns the scratch directory for in-flight uploads.
func (s *Store) TempDir() string {
	return filepath.Join(s.root, tmpDir)
}

func (s *Store) expectedPath(title string) string {
	return filepath.Join(s.root, challengesDir, title+expectedExt)
}

// SaveExpected writes the expected-results file for a challenge. The
// write goes through a temp file so a crash never leaves a partial
// file under challenges/.
func (s *Store) SaveExpected(title string, r io.Reader) error {
	tmp, err := os.CreateTemp(s.TempDir(), title+"-*"+expectedExt)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing expected results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.expectedPath(title)); err != nil {
		return fmt.Errorf("moving expected results into place: %w", err)
	}
	return nil
}

// ReadExpected returns the lines of a challenge's expected-results
// file. Trailing blank lines are dropped so a final newline does not
// count as an extra sample.
func (s *Store) ReadExpected(title string) ([]string, error) {
	f, err := os.Open(s.expectedPath(title))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, title)
		}
		return nil, fmt.Errorf("opening expected results: %w", err)
	}
	defer f.Close()

	return ReadLines(f)
}

// RemoveExpected deletes a challenge's expected-results file. A missing
// file is not an error.
func (s *Store) RemoveExpected(title string) error {
	err := os.Remove(s.expectedPath(title))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing expected results: %w", err)
	}
	return nil
}

// SweepTemp removes files under tmp/ older than maxAge and returns how
// many were deleted.
func (s *Store) SweepTemp(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.TempDir())
	if err != nil {
		return 0, fmt.Errorf("reading temp directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.TempDir(), entry.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// ReadLines splits r into lines, dropping trailing blank lines.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
