package checkpoint

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps state in memory. Every read and write goes through a JSON
// copy so callers never share maps or result values with the store.
type MemoryStore[T any] struct {
	mu    sync.Mutex
	data  []byte
	saves int

	// FailWith, when set, is returned by every Save and Merge.
	FailWith error
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{}
}

func (s *MemoryStore[T]) Load(ctx context.Context) (*State[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decode()
}

func (s *MemoryStore[T]) decode() (*State[T], error) {
	state := NewState[T]()
	if s.data == nil {
		return state, nil
	}
	if err := json.Unmarshal(s.data, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *MemoryStore[T]) Save(ctx context.Context, state *State[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.data = data
	s.saves++
	return nil
}

func (s *MemoryStore[T]) Merge(ctx context.Context, delta *State[T]) (*State[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	current, err := s.decode()
	if err != nil {
		return nil, err
	}
	current.Apply(delta)
	data, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	s.data = data
	s.saves++
	return s.decode()
}

// Saves returns how many successful writes the store has accepted.
func (s *MemoryStore[T]) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
