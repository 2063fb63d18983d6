package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/timmy/tractorhub/internal/atomicfile"
)

type result struct {
	Name string `json:"name"`
}

func ptr(s string) *result { return &result{Name: s} }

func TestStateApply(t *testing.T) {
	base := NewState[result]()
	base.Record("a", ptr("A"), false)
	base.Record("b", nil, true)
	base.Record("c", nil, false)
	base.LastIndex = 3

	delta := NewState[result]()
	delta.Record("b", ptr("B"), false)
	delta.Record("d", nil, true)
	delta.LastIndex = 5

	base.Apply(delta)

	if base.LastIndex != 5 {
		t.Errorf("LastIndex = %d, want 5", base.LastIndex)
	}
	if base.IsFailed("b") {
		t.Error("b should have left the failed set")
	}
	if !base.IsFailed("d") || !base.IsNull("d") {
		t.Error("d should be failed and null")
	}
	if !base.IsNull("c") || base.IsFailed("c") {
		t.Error("c should stay null and not failed")
	}
	if diff := cmp.Diff([]string{"d"}, base.FailedKeys()); diff != "" {
		t.Errorf("failed keys (-want +got):\n%s", diff)
	}

	succeeded, null, failed := base.Counts()
	if succeeded != 2 || null != 2 || failed != 1 {
		t.Errorf("Counts() = %d,%d,%d want 2,2,1", succeeded, null, failed)
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	stores := map[string]func() Store[result]{
		"memory": func() Store[result] { return NewMemoryStore[result]() },
		"file": func() Store[result] {
			return NewFileStore[result](atomicfile.New(afero.NewMemMapFs()), "/cp/job.checkpoint.json")
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore()

			empty, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load on empty store: %v", err)
			}
			if len(empty.Results) != 0 || empty.LastIndex != 0 {
				t.Fatalf("expected empty state, got %+v", empty)
			}

			first := NewState[result]()
			first.Record("x", ptr("X"), false)
			first.Record("y", nil, true)
			first.LastIndex = 2
			if err := store.Save(ctx, first); err != nil {
				t.Fatalf("Save: %v", err)
			}

			delta := NewState[result]()
			delta.Record("y", ptr("Y"), false)
			delta.LastIndex = 2
			merged, err := store.Merge(ctx, delta)
			if err != nil {
				t.Fatalf("Merge: %v", err)
			}

			loaded, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			want := map[string]*result{"x": ptr("X"), "y": ptr("Y")}
			if diff := cmp.Diff(want, loaded.Results); diff != "" {
				t.Errorf("loaded results (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want, merged.Results); diff != "" {
				t.Errorf("merged results (-want +got):\n%s", diff)
			}
			if len(loaded.Failed) != 0 {
				t.Errorf("failed set should be empty, got %v", loaded.FailedKeys())
			}

			loaded.Results["z"] = ptr("Z")
			again, _ := store.Load(ctx)
			if _, ok := again.Results["z"]; ok {
				t.Error("mutating a loaded state leaked into the store")
			}
		})
	}
}

func TestMemoryStoreFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[result]()
	seed := NewState[result]()
	seed.Record("a", ptr("A"), false)
	if err := store.Save(ctx, seed); err != nil {
		t.Fatalf("Save: %v", err)
	}

	boom := errors.New("disk full")
	store.FailWith = boom
	delta := NewState[result]()
	delta.Record("b", ptr("B"), false)
	if _, err := store.Merge(ctx, delta); !errors.Is(err, boom) {
		t.Fatalf("Merge error = %v, want %v", err, boom)
	}

	store.FailWith = nil
	state, _ := store.Load(ctx)
	if _, ok := state.Results["b"]; ok {
		t.Error("failed merge must not change persisted state")
	}
	if store.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", store.Saves())
	}
}

func TestStateJSONKeepsNulls(t *testing.T) {
	fs := atomicfile.New(afero.NewMemMapFs())
	store := NewFileStore[result](fs, "/cp.json")
	s := NewState[result]()
	s.Record("gone", nil, false)
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := NewFileStore[result](fs, "/cp.json")
	loaded, err := fresh.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.IsNull("gone") {
		t.Error("null result should survive a reload")
	}
}
