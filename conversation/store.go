package conversation

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrStateNotFound signals no active conversation for the applicant.
	ErrStateNotFound = errors.New("conversation: state not found")
)

// StateStore keeps at most one State per applicant identity. Lifecycle is an
// explicit contract: Put on start, Put on every answer, Delete on completion.
type StateStore interface {
	Get(ctx context.Context, applicantID string) (State, error)
	Put(ctx context.Context, applicantID string, state State) error
	Delete(ctx context.Context, applicantID string) error
}

// MemoryStore is an in-process StateStore, safe for concurrent use. Suitable
// for tests and single-instance deployments without Redis.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Get(_ context.Context, applicantID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[applicantID]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (m *MemoryStore) Put(_ context.Context, applicantID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[applicantID] = state
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, applicantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, applicantID)
	return nil
}
