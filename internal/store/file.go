package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File persists all records as one JSON object on disk. Every write rewrites
// the file atomically through a temporary file and a rename.
type File struct {
	path string
	mu   sync.Mutex
	data map[string]json.RawMessage
}

// OpenFile loads path, creating an empty store file if it does not exist.
func OpenFile(path string) (*File, error) {
	f := &File{path: path}

	if err := f.load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		f.data = make(map[string]json.RawMessage)
		if err := f.save(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// load reads the state file into memory.
func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}

	data := make(map[string]json.RawMessage)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			backup := f.path + ".corrupt"
			_ = os.Rename(f.path, backup)
			return fmt.Errorf("corrupt state file %s (backed up to %s): %w", f.path, backup, err)
		}
	}
	f.data = data
	return nil
}

// save atomically writes the state file to disk.
func (f *File) save() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	return nil
}

func (f *File) Get(ctx context.Context, key string, v any) (bool, error) {
	f.mu.Lock()
	raw, ok := f.data[key]
	f.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := decode(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (f *File) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[key]
	f.data[key] = raw
	if err := f.save(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.save(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

func (f *File) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return matchKeys(f.data, prefix), nil
}

func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.data
	f.data = make(map[string]json.RawMessage)
	if err := f.save(); err != nil {
		f.data = prev
		return err
	}
	return nil
}

func (f *File) Close() error {
	return nil
}
