// Package cache is a small file-backed JSON result cache. Entries
// are keyed by a content hash; a disabled store is a no-op and a
// corrupt entry reads as a miss. There is no eviction: callers clear
// explicitly.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store caches JSON-serializable values under a directory.
type Store struct {
	dir     string
	enabled bool
}

// New returns a store rooted at dir, creating it when enabled. An
// empty dir defaults to ~/.overlap/cache.
func New(dir string, enabled bool) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving cache dir: %w", err)
		}
		dir = filepath.Join(home, ".overlap", "cache")
	}
	if enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}
	return &Store{dir: dir, enabled: enabled}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string { return s.dir }

// Enabled reports whether the store reads and writes.
func (s *Store) Enabled() bool { return s.enabled }

// Key derives a stable cache key from any JSON-serializable value.
// Map keys are sorted by the JSON encoder, so logically equal values
// produce equal keys. The key is the first 16 hex chars of SHA-256.
func Key(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprint(v))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// Get loads the entry for key into out. Returns false on a miss,
// a disabled store, or a corrupt entry.
func (s *Store) Get(key string, out any) bool {
	if !s.enabled {
		return false
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// Put stores v under key. No-op when disabled.
func (s *Store) Put(key string, v any) error {
	if !s.enabled {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry in the store.
func (s *Store) Clear() error {
	if !s.enabled {
		return nil
	}
	entries, err := filepath.Glob(filepath.Join(s.dir, "*.cache"))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".cache")
}
