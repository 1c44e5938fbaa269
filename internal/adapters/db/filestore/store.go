// Package filestore keeps JSON records as one file per (collection, id) under a
// base directory: <base>/<collection>/<id>.json.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	customErrors "github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/errors"
)

const (
	dirPerm  = 0o770
	filePerm = 0o640
	fileExt  = ".json"
)

// Store has no global lock. Operations on different keys never touch the same
// file; operations on the same key race at the filesystem level, except Create,
// which is exclusive.
type Store struct {
	baseDir string
}

// New makes sure baseDir and every given collection directory exist.
func New(baseDir string, collections ...string) (*Store, error) {
	if err := os.MkdirAll(baseDir, dirPerm); err != nil {
		return nil, customErrors.WrapInternal(err, "mkdir base")
	}
	s := &Store{baseDir: baseDir}
	for _, c := range collections {
		if err := validName(c); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Join(baseDir, c), dirPerm); err != nil {
			return nil, customErrors.WrapInternal(err, "mkdir collection")
		}
	}
	return s, nil
}

func (s *Store) BaseDir() string { return s.baseDir }

// Create persists v under (collection, id). It fails with ErrAlreadyExists when
// a record is already there. The content is written to a temp file first and
// hard-linked into place, so a reader never sees a half-written record.
func (s *Store) Create(ctx context.Context, collection, id string, v any) error {
	target, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := s.writeTemp(collection, v)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if err := os.Link(tmp, target); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%s/%s: %w", collection, id, customErrors.ErrAlreadyExists)
		}
		return customErrors.WrapInternal(err, "create")
	}
	return nil
}

// Read decodes the record stored under (collection, id) into dst.
func (s *Store) Read(ctx context.Context, collection, id string, dst any) error {
	target, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", collection, id, customErrors.ErrNotFound)
		}
		return customErrors.WrapInternal(err, "read")
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return customErrors.WrapInternal(err, "decode")
	}
	return nil
}

// Update replaces an existing record. It fails with ErrNotFound when there is
// nothing to replace. A delete racing with an update may be undone by it.
func (s *Store) Update(ctx context.Context, collection, id string, v any) error {
	target, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", collection, id, customErrors.ErrNotFound)
		}
		return customErrors.WrapInternal(err, "stat")
	}

	tmp, err := s.writeTemp(collection, v)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return customErrors.WrapInternal(err, "update")
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	target, err := s.path(collection, id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s/%s: %w", collection, id, customErrors.ErrNotFound)
		}
		return customErrors.WrapInternal(err, "delete")
	}
	return nil
}

func (s *Store) writeTemp(collection string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", customErrors.WrapInternal(err, "encode")
	}

	dir := filepath.Join(s.baseDir, collection)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", customErrors.WrapInternal(err, "mkdir collection")
	}

	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", customErrors.WrapInternal(err, "create temp")
	}
	name := f.Name()

	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(name)
		return "", customErrors.WrapInternal(err, "write temp")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", customErrors.WrapInternal(err, "sync temp")
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", customErrors.WrapInternal(err, "close temp")
	}
	if err := os.Chmod(name, filePerm); err != nil {
		os.Remove(name)
		return "", customErrors.WrapInternal(err, "chmod temp")
	}
	return name, nil
}

func (s *Store) path(collection, id string) (string, error) {
	if err := validName(collection); err != nil {
		return "", err
	}
	if err := validName(id); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, collection, id+fileExt), nil
}

// validName keeps keys inside the base directory. Temp files start with a dot,
// so ids may not.
func validName(name string) error {
	switch {
	case name == "":
		return customErrors.NewInvalidArgument("empty key")
	case strings.HasPrefix(name, "."):
		return customErrors.NewInvalidArgument("key must not start with a dot")
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return customErrors.NewInvalidArgument("key contains a path separator")
	}
	return nil
}
