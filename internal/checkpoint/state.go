package checkpoint

import (
	"encoding/json"
	"sort"
	"time"
)

// State is the persisted progress of one job.
// Results maps an item key to its result; a nil value records an item that
// was processed without producing a result.
type State[T any] struct {
	LastIndex int
	Results   map[string]*T
	Failed    map[string]struct{}
	UpdatedAt time.Time
}

type stateJSON[T any] struct {
	LastIndex int           `json:"lastIndex"`
	Results   map[string]*T `json:"results"`
	Failed    []string      `json:"failed"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// NewState returns an empty state.
func NewState[T any]() *State[T] {
	return &State[T]{
		Results: make(map[string]*T),
		Failed:  make(map[string]struct{}),
	}
}

// Record stores the outcome for key. A failed item is always recorded as nil.
func (s *State[T]) Record(key string, result *T, failed bool) {
	if failed {
		s.Results[key] = nil
		s.Failed[key] = struct{}{}
		return
	}
	s.Results[key] = result
	delete(s.Failed, key)
}

// Lookup returns the recorded result and whether key has been recorded at all.
func (s *State[T]) Lookup(key string) (*T, bool) {
	v, ok := s.Results[key]
	return v, ok
}

// Done reports whether key has a non-null result.
func (s *State[T]) Done(key string) bool {
	return s.Results[key] != nil
}

// IsFailed reports whether key is in the failed set.
func (s *State[T]) IsFailed(key string) bool {
	_, ok := s.Failed[key]
	return ok
}

// IsNull reports whether key was recorded with a nil result.
func (s *State[T]) IsNull(key string) bool {
	v, ok := s.Results[key]
	return ok && v == nil
}

// FailedKeys returns the failed set in sorted order.
func (s *State[T]) FailedKeys() []string {
	keys := make([]string, 0, len(s.Failed))
	for k := range s.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Counts returns the number of non-null results, null results and failures.
func (s *State[T]) Counts() (succeeded, null, failed int) {
	for _, v := range s.Results {
		if v == nil {
			null++
		} else {
			succeeded++
		}
	}
	return succeeded, null, len(s.Failed)
}

// Apply merges delta into s. Keys in delta overwrite s; a key recorded in
// delta without failure leaves the failed set.
func (s *State[T]) Apply(delta *State[T]) {
	for k, v := range delta.Results {
		_, failed := delta.Failed[k]
		s.Record(k, v, failed)
	}
	for k := range delta.Failed {
		if _, ok := delta.Results[k]; !ok {
			s.Failed[k] = struct{}{}
		}
	}
	s.LastIndex = delta.LastIndex
	if delta.UpdatedAt.After(s.UpdatedAt) {
		s.UpdatedAt = delta.UpdatedAt
	}
}

// Clone returns a copy whose maps can be mutated independently.
// Result values are shared.
func (s *State[T]) Clone() *State[T] {
	c := &State[T]{
		LastIndex: s.LastIndex,
		Results:   make(map[string]*T, len(s.Results)),
		Failed:    make(map[string]struct{}, len(s.Failed)),
		UpdatedAt: s.UpdatedAt,
	}
	for k, v := range s.Results {
		c.Results[k] = v
	}
	for k := range s.Failed {
		c.Failed[k] = struct{}{}
	}
	return c
}

func (s *State[T]) MarshalJSON() ([]byte, error) {
	results := s.Results
	if results == nil {
		results = map[string]*T{}
	}
	return json.Marshal(stateJSON[T]{
		LastIndex: s.LastIndex,
		Results:   results,
		Failed:    s.FailedKeys(),
		UpdatedAt: s.UpdatedAt,
	})
}

func (s *State[T]) UnmarshalJSON(data []byte) error {
	var w stateJSON[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.LastIndex = w.LastIndex
	s.UpdatedAt = w.UpdatedAt
	s.Results = w.Results
	if s.Results == nil {
		s.Results = make(map[string]*T)
	}
	s.Failed = make(map[string]struct{}, len(w.Failed))
	for _, k := range w.Failed {
		s.Failed[k] = struct{}{}
	}
	return nil
}
