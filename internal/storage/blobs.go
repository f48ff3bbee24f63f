// Package storage persists small named blobs (the offline snapshot and the
// attendance log) in a data directory.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by Load when no blob with that name exists.
var ErrNotFound = errors.New("blob not found")

// Blobs loads and saves opaque named values.
type Blobs interface {
	Load(name string) ([]byte, error)
	Save(name string, data []byte) error
}

// PersistenceError wraps a failing read or write.
type PersistenceError struct {
	Op   string
	Name string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// FS stores each blob as a file under Dir.
type FS struct {
	fs  afero.Fs
	dir string
}

var _ Blobs = (*FS)(nil)

// NewFS returns a store rooted at dir. A nil fs selects the OS filesystem.
func NewFS(fs afero.Fs, dir string) *FS {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FS{fs: fs, dir: dir}
}

// Dir returns the root directory.
func (s *FS) Dir() string { return s.dir }

// Load reads the blob. A missing blob yields ErrNotFound.
func (s *FS) Load(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "load", Name: name, Err: err}
	}
	return data, nil
}

// Save replaces the blob atomically: the data goes to a temp file in the
// same directory which is then renamed over the target.
func (s *FS) Save(name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}

	tmp, err := afero.TempFile(s.fs, s.dir, "."+name+".*")
	if err != nil {
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		_ = s.fs.Remove(tmpName)
		return &PersistenceError{Op: "save", Name: name, Err: err}
	}
	return nil
}

func (s *FS) path(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" || clean != filepath.Base(clean) || strings.HasPrefix(clean, ".") {
		return "", &PersistenceError{Op: "resolve", Name: name, Err: fmt.Errorf("invalid blob name")}
	}
	return filepath.Join(s.dir, clean), nil
}
