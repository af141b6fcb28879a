package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// File is a Store backed by a YAML document. Every Set rewrites the file.
type File struct {
	path   string
	mu     sync.RWMutex
	values map[string]string
}

// OpenFile loads the YAML file at path; a missing file starts empty
func OpenFile(path string) (*File, error) {
	f := &File{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if f.values == nil {
		f.values = make(map[string]string)
	}
	return f, nil
}

// Path returns the backing file path
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

// flush writes the values to a temp file and renames it over the target.
// The file holds an API key, so it is only readable by the owner.
func (f *File) flush() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
