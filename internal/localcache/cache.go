// Package localcache holds the single-slot durable copy of the
// checklist in progress. Every domain mutation is written here
// synchronously; the cache is the last-resort source of truth when the
// remote store is unreachable or the user has no session.
package localcache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/apexestimating/fieldcheck/internal/checklist"
)

var ErrInvalidInput = errors.New("invalid input")

// Cache is a last-writer-wins single slot. Load returns nil with no
// error when the slot is empty.
type Cache interface {
	Save(data *checklist.Checklist) error
	Load() (*checklist.Checklist, error)
	Clear() error
	Close() error
}

type fileCache struct {
	path string
	mu   sync.Mutex
}

// NewFileCache stores the slot as JSON at path, written atomically via
// a temp file and rename so a crash mid-write never corrupts the slot.
func NewFileCache(path string) (Cache, error) {
	path = filepath.Clean(path)
	if path == "" || path == "." {
		return nil, ErrInvalidInput
	}
	return &fileCache{path: path}, nil
}

func (c *fileCache) Save(data *checklist.Checklist) error {
	if data == nil {
		return ErrInvalidInput
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(c.path, payload, 0o644)
}

func (c *fileCache) Load() (*checklist.Checklist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out checklist.Checklist
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *fileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *fileCache) Close() error {
	return nil
}

// Path exposes the slot location for cache-file watching.
func (c *fileCache) Path() string {
	return c.path
}

type memoryCache struct {
	mu       sync.Mutex
	snapshot []byte
}

// NewMemoryCache keeps the slot in memory. Snapshots round-trip
// through JSON so callers never share item or note slices with the
// cached copy.
func NewMemoryCache() Cache {
	return &memoryCache{}
}

func (c *memoryCache) Save(data *checklist.Checklist) error {
	if data == nil {
		return ErrInvalidInput
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = payload
	return nil
}

func (c *memoryCache) Load() (*checklist.Checklist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return nil, nil
	}
	var out checklist.Checklist
	if err := json.Unmarshal(c.snapshot, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *memoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	return nil
}

func (c *memoryCache) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
