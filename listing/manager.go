package listing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Store persists listing sessions and guards them against concurrent loads.
type Store interface {
	Get(ctx context.Context, id string) (State, error)
	Put(ctx context.Context, id string, st State) error
	// Lock marks a load as in flight for id. It fails with ErrLoadInFlight
	// while another holder has not called the returned unlock func.
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// Manager ties listing sessions to a Store and a page Fetcher.
type Manager struct {
	store  Store
	source Fetcher
}

// NewManager creates a Manager.
func NewManager(store Store, source Fetcher) *Manager {
	return &Manager{store: store, source: source}
}

// Start saves st under a new session id.
func (m *Manager) Start(ctx context.Context, st State) (string, error) {
	id := uuid.NewString()
	if err := m.store.Put(ctx, id, st); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the state of session id.
func (m *Manager) Get(ctx context.Context, id string) (State, error) {
	if id == "" {
		return State{}, ErrSessionNotFound
	}
	return m.store.Get(ctx, id)
}

// LoadMore loads the next page for session id. The returned state is always
// the one to display: the grown listing on success, the unchanged one on error.
func (m *Manager) LoadMore(ctx context.Context, id string) (State, error) {
	if id == "" {
		return State{}, ErrSessionNotFound
	}
	unlock, err := m.store.Lock(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return State{}, err
		}
		st, getErr := m.store.Get(ctx, id)
		if getErr != nil {
			return State{}, getErr
		}
		return st, err
	}
	defer unlock()

	st, err := m.store.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	next, err := st.LoadMore(ctx, m.source)
	if err != nil {
		return st, err
	}
	if err := m.store.Put(ctx, id, next); err != nil {
		return st, err
	}
	return next, nil
}
