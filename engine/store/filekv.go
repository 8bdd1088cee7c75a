package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileKV is a KeyValue backed by a single JSON file, the desktop analogue of
// browser local storage. Every Set rewrites the file; last write wins.
type FileKV struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// NewFileKV loads (or lazily creates) the store at path
func NewFileKV(path string) (*FileKV, error) {
	kv := &FileKV{
		path:   path,
		values: make(map[string]string),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return kv, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &kv.values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return kv, nil
}

func (kv *FileKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *FileKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.values[key] = value

	data, err := json.MarshalIndent(kv.values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(kv.path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", kv.path, err)
	}
	if err := os.WriteFile(kv.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", kv.path, err)
	}
	return nil
}

// MemKV is an in-memory KeyValue for tests and throwaway sessions
type MemKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemKV() *MemKV {
	return &MemKV{values: make(map[string]string)}
}

func (kv *MemKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *MemKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.values[key] = value
	return nil
}
