package listing

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state    State
	expires  time.Time
	inFlight bool
}

// MemoryStore keeps sessions in process memory with a sliding TTL.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
}

// NewMemoryStore creates a MemoryStore whose sessions expire ttl after last use.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry), ttl: ttl}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || time.Now().After(e.expires) {
		return State{}, ErrSessionNotFound
	}
	e.expires = time.Now().Add(s.ttl)
	return e.state, nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, id string, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &memoryEntry{}
		s.entries[id] = e
	}
	e.state = st
	e.expires = time.Now().Add(s.ttl)
	return nil
}

// Lock implements Store.
func (s *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok || time.Now().After(e.expires) {
		return nil, ErrSessionNotFound
	}
	if e.inFlight {
		return nil, ErrLoadInFlight
	}
	e.inFlight = true
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			e.inFlight = false
			s.mu.Unlock()
		})
	}, nil
}

// Sweep drops expired sessions that are not loading.
func (s *MemoryStore) Sweep() {
	now := time.Now()
	s.mu.Lock()
	for id, e := range s.entries {
		if !e.inFlight && now.After(e.expires) {
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()
}

// StartSweeper runs Sweep every interval until the returned stop func is called.
func (s *MemoryStore) StartSweeper(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
