package aba

import (
	"fmt"
	"os"
	"path/filepath"

	"fjacquet/claimflow/internal/fileutils"
)

// Sink publishes generated files.
type Sink interface {
	// Stage writes f somewhere not yet visible under its final name.
	Stage(f *File) (Staged, error)
}

// Staged is a file waiting for its batch to be saved.
type Staged interface {
	Commit() error
	Discard() error
	Path() string
}

// DirSink publishes files into a directory, creating it if needed.
type DirSink struct {
	Dir string
}

// Stage writes the content to a hidden temporary file in the target directory.
func (s DirSink) Stage(f *File) (Staged, error) {
	if err := fileutils.EnsureDirectoryExists(s.Dir); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(s.Dir, "."+f.Filename+".*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	if _, err := tmp.WriteString(f.Content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write payment file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write payment file: %w", err)
	}
	return &stagedFile{tmp: tmp.Name(), path: filepath.Join(s.Dir, f.Filename)}, nil
}

type stagedFile struct {
	tmp  string
	path string
}

func (f *stagedFile) Commit() error {
	if err := os.Chmod(f.tmp, 0o600); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(f.tmp, f.path); err != nil {
		return fmt.Errorf("failed to publish %s (content kept at %s): %w", f.path, f.tmp, err)
	}
	return nil
}

func (f *stagedFile) Discard() error {
	if err := os.Remove(f.tmp); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *stagedFile) Path() string { return f.path }
