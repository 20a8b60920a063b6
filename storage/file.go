package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
)

// implements file storage for snapshots

type FileConfig struct {
	Path string `config:"path" validate:"required"`
}

var _ Storage = &File{}

// File stores each snapshot as a file under Path. Writes go to a temporary
// file in the same directory which is synced and then renamed over the
// target. On the OS filesystem a lock file serializes writers from
// cooperating processes sharing the directory.
type File struct {
	FileConfig
	fs afero.Fs
}

func NewFileFromConfig(cfg FileConfig) *File {
	return NewFile(afero.NewOsFs(), cfg.Path)
}

func NewFile(fs afero.Fs, path string) *File {
	return &File{FileConfig: FileConfig{Path: path}, fs: fs}
}

func (f *File) fullPath(key string) string {
	return filepath.Join(f.Path, sanitizeKey(key))
}

func (f *File) Read(_ context.Context, key string) ([]byte, error) {
	fullPath := f.fullPath(key)

	b, err := afero.ReadFile(f.fs, fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading file %q: %w", fullPath, err)
	}
	return b, nil
}

func (f *File) Write(ctx context.Context, key string, data []byte) error {
	fullPath := f.fullPath(key)

	if err := f.fs.MkdirAll(f.Path, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", f.Path, err)
	}

	if _, ok := f.fs.(*afero.OsFs); ok {
		lock := flock.New(fullPath + ".lock")
		locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
		if err != nil {
			return fmt.Errorf("locking %q: %w", fullPath, err)
		}
		if !locked {
			return fmt.Errorf("could not lock %q", fullPath)
		}
		defer func() { _ = lock.Unlock() }()
	}

	tmp, err := afero.TempFile(f.fs, f.Path, "."+sanitizeKey(key)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %q: %w", fullPath, err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = f.fs.Remove(tmpName)
		return err
	}

	n, err := tmp.Write(data)
	if err != nil {
		return cleanup(fmt.Errorf("writing file %q: %w", tmpName, err))
	}
	if n != len(data) {
		return cleanup(fmt.Errorf("incomplete file write to %s", tmpName))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("syncing file %q: %w", tmpName, err))
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("closing file %q: %w", tmpName, err)
	}

	if err := f.fs.Rename(tmpName, fullPath); err != nil {
		_ = f.fs.Remove(tmpName)
		return fmt.Errorf("renaming %q to %q: %w", tmpName, fullPath, err)
	}

	return nil
}
