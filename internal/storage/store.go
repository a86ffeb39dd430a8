package storage

import (
	"sort"
	"sync"
)

// Entry is one cached key/value pair.
type Entry struct {
	Key   uint64 `json:"key"`
	Value string `json:"value"`
}

// Store defines the interface for key-value storage.
type Store interface {
	// Get retrieves a value by key.
	Get(key uint64) (string, bool)
	// Put stores value under key, overwriting any previous value.
	Put(key uint64, value string)
	// Delete removes key and reports whether it was present.
	Delete(key uint64) bool
	// List returns every entry ordered by key.
	List() []Entry
}

// InMemoryStore is a thread-safe in-memory implementation of Store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[uint64]string
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[uint64]string),
	}
}

func (s *InMemoryStore) Get(key uint64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	return v, ok
}

func (s *InMemoryStore) Put(key uint64, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
}

func (s *InMemoryStore) Delete(key uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	return true
}

func (s *InMemoryStore) List() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.data))
	for k, v := range s.data {
		entries = append(entries, Entry{Key: k, Value: v})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}
