package stores

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/envlane/envlane/pkg/environment"
)

// MemStore is an in-memory Repository used by tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	states map[environment.Name]environment.ErasedState

	// SaveErr, when set, is returned by the next Save call.
	SaveErr error
}

// NewMemStore creates an empty in-memory repository.
func NewMemStore() *MemStore {
	return &MemStore{states: make(map[environment.Name]environment.ErasedState)}
}

// Save stores the snapshot, replacing any previous one.
func (s *MemStore) Save(_ context.Context, state environment.ErasedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		err := s.SaveErr
		s.SaveErr = nil
		return err
	}
	s.states[state.Name()] = state
	return nil
}

// Load returns the stored snapshot or ErrNotFound.
func (s *MemStore) Load(_ context.Context, name environment.Name) (environment.ErasedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[name]
	if !ok {
		return environment.ErasedState{}, fmt.Errorf("environment %q: %w", name, ErrNotFound)
	}
	return state, nil
}

// List returns all snapshots in name order.
func (s *MemStore) List(_ context.Context) ([]ListEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]ListEntry, 0, len(s.states))
	for name, state := range s.states {
		entries = append(entries, ListEntry{Name: name, State: state})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Delete removes the snapshot if present.
func (s *MemStore) Delete(_ context.Context, name environment.Name) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, name)
	return nil
}
