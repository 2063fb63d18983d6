package checkpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/timmy/tractorhub/internal/atomicfile"
)

// FileStore keeps state in a JSON file replaced atomically on every write.
type FileStore[T any] struct {
	fs   *atomicfile.FS
	path string

	mu      sync.Mutex
	current *State[T]
}

// NewFileStore creates a store for the checkpoint file at path.
func NewFileStore[T any](fs *atomicfile.FS, path string) *FileStore[T] {
	return &FileStore[T]{fs: fs, path: path}
}

// Path returns the checkpoint file location.
func (s *FileStore[T]) Path() string {
	return s.path
}

func (s *FileStore[T]) Load(ctx context.Context) (*State[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

func (s *FileStore[T]) load() (*State[T], error) {
	if s.current != nil {
		return s.current, nil
	}
	state := NewState[T]()
	if _, err := s.fs.ReadJSON(s.path, state); err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	s.current = state
	return state, nil
}

func (s *FileStore[T]) Save(ctx context.Context, state *State[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.WriteJSON(s.path, state); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	s.current = state.Clone()
	return nil
}

func (s *FileStore[T]) Merge(ctx context.Context, delta *State[T]) (*State[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return nil, err
	}
	merged := current.Clone()
	merged.Apply(delta)

	if err := s.fs.WriteJSON(s.path, merged); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	s.current = merged
	return merged.Clone(), nil
}
