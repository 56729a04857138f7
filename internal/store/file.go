package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// File stores each channel's blob as <dir>/<channel>.json.
//
// Writes go to a uniquely named temporary file that is renamed over the
// target, so readers never see a partial blob. Update is exclusive per
// channel within one process.
type File struct {
	dir   string
	locks channelLocks
}

// NewFile returns a [File] store rooted at dir, creating dir if needed.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &File{dir: dir}, nil
}

// Dir returns the directory holding the channel files.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) path(channel string) (string, error) {
	if err := ValidateChannel(channel); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, channel+".json"), nil
}

// Load reads the channel's file.
func (f *File) Load(ctx context.Context, channel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.path(channel)
	if err != nil {
		return nil, err
	}
	return readBlob(path)
}

// Update runs fn while holding the channel's lock and writes the result atomically.
func (f *File) Update(ctx context.Context, channel string, fn UpdateFunc) error {
	path, err := f.path(channel)
	if err != nil {
		return err
	}
	unlock := f.locks.lock(channel)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := readBlob(path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	next, changed, err := fn(current)
	if err != nil || !changed {
		return err
	}

	if next == nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete story: %w", err)
		}
		return nil
	}
	return writeAtomic(path, next)
}

// Close is a no-op.
func (f *File) Close() error {
	return nil
}

func readBlob(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read story: %w", err)
	}
	return data, nil
}

func writeAtomic(path string, data []byte) error {
	tmpPath := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write story: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write story: %w", err)
	}
	return nil
}
