// Package store keeps record collections as JSON arrays on disk.
//
// Every collection is a single file that is rewritten whole on each change.
// Writes go to a temporary file in the same directory which is then renamed
// over the target, so readers observe either the old or the new array and
// never a truncated one.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrPersistence marks a failed write. Callers treat it as transient.
	ErrPersistence = errors.New("store: persistence failure")
	// ErrUnchanged may be returned from an Update callback to skip the write.
	ErrUnchanged = errors.New("store: unchanged")
)

// Records is a whole-collection persistence contract.
type Records[T any] interface {
	Load() ([]T, error)
	Save(records []T) error
	// Update runs fn on the current records and saves the result. Load, fn
	// and Save happen under one lock.
	Update(fn func([]T) ([]T, error)) error
}

// File is a Records implementation backed by one JSON file.
type File[T any] struct {
	mu   sync.Mutex
	path string
}

// OpenFile prepares dir/name, creating the directory and an empty array when
// the file does not exist yet.
func OpenFile[T any](dir, name string) (*File[T], error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f := &File[T]{path: filepath.Join(dir, name)}
	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		if err := f.write([]T{}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return f, nil
}

func (f *File[T]) Path() string { return f.path }

func (f *File[T]) Load() ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *File[T]) Save(records []T) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(records)
}

func (f *File[T]) Update(fn func([]T) ([]T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.read()
	if err != nil {
		return err
	}
	next, err := fn(records)
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.write(next)
}

// read returns an empty slice for a missing or blank file. A file that holds
// something other than a JSON array is an error; overwriting it would lose data.
func (f *File[T]) read() ([]T, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(f.path), err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(f.path), err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (f *File[T]) write(records []T) error {
	if records == nil {
		records = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}

	dir, name := filepath.Split(f.path)
	tmp, err := os.CreateTemp(dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
