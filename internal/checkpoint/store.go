// Package checkpoint persists job progress so a batch can resume after a
// restart.
package checkpoint

import "context"

// Store loads and persists a job's State.
type Store[T any] interface {
	// Load returns the persisted state, or an empty state when none exists.
	Load(ctx context.Context) (*State[T], error)

	// Save replaces the persisted state.
	Save(ctx context.Context, state *State[T]) error

	// Merge applies delta on top of the persisted state and returns the result.
	// The persisted state is unchanged when an error is returned.
	Merge(ctx context.Context, delta *State[T]) (*State[T], error)
}
