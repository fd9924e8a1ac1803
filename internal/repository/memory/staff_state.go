package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/roster"
)

type staffStateStore struct {
	mu     sync.RWMutex
	states map[string]roster.StaffState
}

// Get implements roster.StateStore.
func (s *staffStateStore) Get(_ context.Context, staffID string) (roster.StaffState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[staffID]
	if !ok {
		return roster.StaffState{}, roster.ErrStateNotFound
	}
	return state, nil
}

// Set implements roster.StateStore.
func (s *staffStateStore) Set(_ context.Context, staffID string, state roster.StaffState) error {
	s.mu.Lock()
	s.states[staffID] = state
	s.mu.Unlock()
	return nil
}

// Clear implements roster.StateStore.
func (s *staffStateStore) Clear(_ context.Context, staffID string) error {
	s.mu.Lock()
	delete(s.states, staffID)
	s.mu.Unlock()
	return nil
}

// ClearAll implements roster.StateStore.
func (s *staffStateStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	s.states = make(map[string]roster.StaffState)
	s.mu.Unlock()
	return nil
}

// List implements roster.StateStore. States are ordered by staff name.
func (s *staffStateStore) List(_ context.Context) ([]roster.StaffState, error) {
	s.mu.RLock()
	states := make([]roster.StaffState, 0, len(s.states))
	for _, st := range s.states {
		states = append(states, st)
	}
	s.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		if states[i].StaffName != states[j].StaffName {
			return states[i].StaffName < states[j].StaffName
		}
		return states[i].StaffID < states[j].StaffID
	})
	return states, nil
}

func NewStaffStateStore() roster.StateStore {
	return &staffStateStore{states: make(map[string]roster.StaffState)}
}
