// Package memory implements the ephemeral, map-backed Persistence profile
// (SPEC_FULL.md §4.10): the same storage.Backend contract as the on-disk
// file profile and the SQL profile, generalized from the file profile's
// pathToFile/atomic-write idiom onto an in-process map, so nothing touches
// disk and state does not survive a restart.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/opencode-ai/mcp-gateway/internal/storage"
)

var _ storage.Backend = (*Store)(nil)

// Store is a path-keyed map guarded by a single mutex. A path slice is
// joined with "/" the same way the file profile joins it into a filesystem
// path, so both profiles address the same logical key space.
type Store struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]json.RawMessage)}
}

func key(path []string) string {
	return strings.Join(path, "/")
}

// Get retrieves a value from storage.
func (s *Store) Get(ctx context.Context, path []string, v any) error {
	s.mu.RLock()
	data, ok := s.entries[key(path)]
	s.mu.RUnlock()
	if !ok {
		return storage.ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}

// Put stores a value, replacing any previous value at the same path.
func (s *Store) Put(ctx context.Context, path []string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	s.mu.Lock()
	s.entries[key(path)] = data
	s.mu.Unlock()
	return nil
}

// Delete removes a value from storage. Deleting a missing key is a no-op,
// matching the file profile's behavior.
func (s *Store) Delete(ctx context.Context, path []string) error {
	s.mu.Lock()
	delete(s.entries, key(path))
	s.mu.Unlock()
	return nil
}

// List returns the immediate child segments under path: both leaf entries
// and entries that are themselves prefixes of deeper keys.
func (s *Store) List(ctx context.Context, path []string) ([]string, error) {
	prefix := key(path)
	if prefix != "" {
		prefix += "/"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var items []string
	for k := range s.entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if rest == "" {
			continue
		}
		segment := rest
		if idx := strings.Index(rest, "/"); idx >= 0 {
			segment = rest[:idx]
		}
		if _, ok := seen[segment]; ok {
			continue
		}
		seen[segment] = struct{}{}
		items = append(items, segment)
	}
	return items, nil
}

// Scan iterates over every direct leaf entry under path (not nested
// subdirectories), mirroring the file profile's single-level directory read.
func (s *Store) Scan(ctx context.Context, path []string, fn func(key string, data json.RawMessage) error) error {
	prefix := key(path)
	if prefix != "" {
		prefix += "/"
	}

	type match struct {
		key  string
		data json.RawMessage
	}

	s.mu.RLock()
	var matches []match
	for k, v := range s.entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		matches = append(matches, match{key: rest, data: v})
	}
	s.mu.RUnlock()

	for _, m := range matches {
		if err := fn(m.key, m.data); err != nil {
			return err
		}
	}
	return nil
}

// Exists checks whether a value is stored at path.
func (s *Store) Exists(ctx context.Context, path []string) bool {
	s.mu.RLock()
	_, ok := s.entries[key(path)]
	s.mu.RUnlock()
	return ok
}
