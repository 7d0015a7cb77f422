package places

import (
	"context"
	"maps"
	"sync"
)

// Store is the place cache. An entry with an empty name means the coordinate
// resolved to nothing and must not be looked up again.
//
// Backends load every entry when opened and write changed entries on Flush.
type Store interface {
	Get(key string) (name string, ok bool)
	Put(key, name string)
	Len() int
	All() map[string]string
	Flush(ctx context.Context) error
	Close() error
}

// MemoryStore keeps entries in a map guarded by a mutex. The persistent
// backends embed it and only add load and flush.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
	dirty   map[string]struct{}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]string),
		dirty:   make(map[string]struct{}),
	}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.entries[key]
	return name, ok
}

func (s *MemoryStore) Put(key, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[key]; ok && old == name {
		return
	}
	s.entries[key] = name
	s.dirty[key] = struct{}{}
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// All returns a copy of every entry.
func (s *MemoryStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.entries)
}

func (s *MemoryStore) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.dirty)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// load seeds entries without marking them dirty.
func (s *MemoryStore) load(entries map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.entries, entries)
}

// pending returns the entries changed since the last successful flush.
func (s *MemoryStore) pending() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.dirty))
	for key := range s.dirty {
		out[key] = s.entries[key]
	}
	return out
}

// markClean forgets keys written by a flush unless they changed meanwhile.
func (s *MemoryStore) markClean(written map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, name := range written {
		if s.entries[key] == name {
			delete(s.dirty, key)
		}
	}
}
