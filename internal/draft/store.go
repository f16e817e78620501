// Package draft keeps a reservation form's partial contact state in a small
// per-session key-value store and exposes the operations the form events map to.
package draft

import (
	"context"
	"sync"
	"time"
)

// Persisted keys. The first three match what the reservation page scripts
// have always written to sessionStorage.
const (
	KeyEmail      = "userEmail"
	KeyActivities = "selectedActivities"
	KeyExpiry     = "sessionExpiry"
	KeyFirstName  = "firstName"
	KeyLastName   = "lastName"
	KeyFinalized  = "reservationCompleted"
)

// Store is the key-value store backing one session's draft.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	// Clear removes every key of the session.
	Clear(ctx context.Context) error
}

// Sessions hands out the Store for a session id.
type Sessions interface {
	Session(id string) Store
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string

	// Set when the store belongs to a MemorySessions registry.
	owner *MemorySessions
	id    string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	if s.owner != nil {
		s.owner.retain(s.id, s)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.values, k)
	}
	empty := len(s.values) == 0
	s.mu.Unlock()
	if empty && s.owner != nil {
		s.owner.release(s.id, s)
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.values = make(map[string]string)
	s.mu.Unlock()
	if s.owner != nil {
		s.owner.release(s.id, s)
	}
	return nil
}

// Len reports the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// MemorySessions keeps one MemoryStore per session id. A store leaves the
// registry when it is cleared or emptied and rejoins on its next write;
// sessions untouched for longer than the idle cutoff are evicted, mirroring
// the key TTL of the Redis backend.
type MemorySessions struct {
	mu        sync.Mutex
	stores    map[string]*memorySession
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type memorySession struct {
	store    *MemoryStore
	lastSeen time.Time
}

// NewMemorySessions creates an empty session registry.
func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		stores: make(map[string]*memorySession),
		idle:   draftKeyTTL,
		now:    time.Now,
	}
}

func (m *MemorySessions) Session(id string) Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)

	e, ok := m.stores[id]
	if !ok {
		e = &memorySession{store: &MemoryStore{values: make(map[string]string), owner: m, id: id}}
		m.stores[id] = e
	}
	e.lastSeen = now
	return e.store
}

// Len reports the number of sessions currently held.
func (m *MemorySessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

// sweep evicts idle sessions, at most once per quarter of the idle cutoff.
// Callers hold m.mu.
func (m *MemorySessions) sweep(now time.Time) {
	if m.idle <= 0 || now.Sub(m.lastSweep) < m.idle/4 {
		return
	}
	m.lastSweep = now
	cutoff := now.Add(-m.idle)
	for id, e := range m.stores {
		if e.lastSeen.Before(cutoff) {
			delete(m.stores, id)
		}
	}
}

func (m *MemorySessions) release(id string, s *MemoryStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.stores[id]; ok && e.store == s {
		delete(m.stores, id)
	}
}

func (m *MemorySessions) retain(id string, s *MemoryStore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[id]; !ok {
		m.stores[id] = &memorySession{store: s, lastSeen: m.now()}
	}
}
