package corpus

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

// Source is a read-only collection of named corpus objects.
// Implementations must be safe for concurrent use.
type Source interface {
	// Open opens an object for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns all object names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// LocalSource implements Source using the local file system.
type LocalSource struct {
	root string
}

// NewLocalSource creates a new LocalSource rooted at the given directory.
func NewLocalSource(root string) *LocalSource {
	return &LocalSource{root: root}
}

// Open opens a file for reading.
func (s *LocalSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
}

// List returns the slash-separated paths of all regular files below root
// that start with prefix.
func (s *LocalSource) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
