package tokenstore

import (
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

// MemoryStore is an in-process Store with cookie-jar expiry semantics. It
// backs CLI use of the API client and tests.
type MemoryStore struct {
	names Names
	now   func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// NewMemoryStore creates an empty store using names (DefaultNames if zero).
func NewMemoryStore(names Names) *MemoryStore {
	if names == (Names{}) {
		names = DefaultNames
	}
	return &MemoryStore{
		names:   names,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// WithClock swaps the store's clock. Tests only.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *MemoryStore) Set(name, value string, maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = entry{value: value, expires: s.now().Add(maxAge)}
}

func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return "", false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, name)
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
}

func (s *MemoryStore) ClearSession() {
	clearSession(s, s.names)
}
