package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/timmy/tractorhub/internal/checkpoint"
)

type rec struct {
	Value int `json:"value"`
}

func itemKey(i int) string { return fmt.Sprintf("item-%03d", i) }

func workList(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCounter() *counter { return &counter{calls: map[string]int{}} }

func (c *counter) hit(key string) {
	c.mu.Lock()
	c.calls[key]++
	c.mu.Unlock()
}

func (c *counter) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key]
}

func double(c *counter) ProcessFunc[int, rec] {
	return func(ctx context.Context, i int) (*rec, error) {
		c.hit(itemKey(i))
		return &rec{Value: i * 2}, nil
	}
}

func mustRunner(t *testing.T, store checkpoint.Store[rec], fn ProcessFunc[int, rec], opts Options) *Runner[int, rec] {
	t.Helper()
	r, err := New[int, rec]("test", store, itemKey, fn, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestResumeAfterPartialRun(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore[rec]()
	calls := newCounter()
	items := workList(200)

	first := mustRunner(t, store, double(calls), Options{Limit: 50, Concurrency: 4, SaveEvery: 10})
	stats, err := first.Run(ctx, items)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if stats.Processed != 50 {
		t.Fatalf("first run processed %d, want 50", stats.Processed)
	}

	saved, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.LastIndex != 50 {
		t.Errorf("LastIndex after first run = %d, want 50", saved.LastIndex)
	}

	second := mustRunner(t, store, double(calls), Options{Concurrency: 4, SaveEvery: 10})
	if _, err := second.Run(ctx, items); err != nil {
		t.Fatalf("second run: %v", err)
	}

	final, _ := store.Load(ctx)
	if len(final.Results) != 200 {
		t.Errorf("final results = %d, want 200", len(final.Results))
	}
	for k, v := range saved.Results {
		got, ok := final.Results[k]
		if !ok {
			t.Errorf("key %s lost after resume", k)
			continue
		}
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("key %s changed (-before +after):\n%s", k, diff)
		}
	}
	for i := 0; i < 50; i++ {
		if n := calls.get(itemKey(i)); n != 1 {
			t.Errorf("%s processed %d times, want 1", itemKey(i), n)
		}
	}
	if final.LastIndex != 200 {
		t.Errorf("final LastIndex = %d, want 200", final.LastIndex)
	}
}

func TestFailuresAreRecordedAndRetried(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore[rec]()
	items := workList(20)

	flaky := func(ctx context.Context, i int) (*rec, error) {
		switch {
		case i == 3:
			panic("boom")
		case i%7 == 0:
			return nil, errors.New("timeout")
		case i == 5:
			return nil, nil
		}
		return &rec{Value: i}, nil
	}

	stats, err := mustRunner(t, store, flaky, Options{Concurrency: 3, SaveEvery: 4}).Run(ctx, items)
	if err != nil {
		t.Fatalf("Run returned %v; per-item failures must not abort", err)
	}
	// failures: 0, 7, 14 and the panic at 3
	if stats.Failed != 4 || stats.Null != 1 || stats.Succeeded != 15 {
		t.Errorf("stats = failed %d null %d ok %d, want 4/1/15", stats.Failed, stats.Null, stats.Succeeded)
	}

	state, _ := store.Load(ctx)
	if diff := cmp.Diff([]string{"item-000", "item-003", "item-007", "item-014"}, state.FailedKeys()); diff != "" {
		t.Errorf("failed set (-want +got):\n%s", diff)
	}

	calls := newCounter()
	retry := mustRunner(t, store, double(calls), Options{RetryFailed: true, Concurrency: 2})
	stats, err = retry.Run(ctx, items)
	if err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if stats.Selected != 4 {
		t.Errorf("retry selected %d, want 4", stats.Selected)
	}
	if calls.get("item-005") != 0 {
		t.Error("null item must not be retried by RetryFailed")
	}

	state, _ = store.Load(ctx)
	if len(state.Failed) != 0 {
		t.Errorf("failed set should be empty, got %v", state.FailedKeys())
	}
	if state.LastIndex != 20 {
		t.Errorf("retry mode changed LastIndex to %d", state.LastIndex)
	}

	calls = newCounter()
	stats, err = mustRunner(t, store, double(calls), Options{RetryNull: true}).Run(ctx, items)
	if err != nil {
		t.Fatalf("retry-null run: %v", err)
	}
	if stats.Selected != 1 || calls.get("item-005") != 1 {
		t.Errorf("retry-null selected %d items, item-005 calls %d", stats.Selected, calls.get("item-005"))
	}
}

func TestSelectionModes(t *testing.T) {
	ctx := context.Background()
	items := workList(10)
	start := 6

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{name: "resume skips completed", opts: Options{}, want: 0},
		{name: "all rescans but skips non-null", opts: Options{All: true}, want: 2},
		{name: "force reprocesses everything", opts: Options{Force: true}, want: 10},
		{name: "force from start", opts: Options{Force: true, Start: &start}, want: 4},
		{name: "limit caps selection", opts: Options{Force: true, Limit: 3}, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := checkpoint.NewMemoryStore[rec]()
			seed := checkpoint.NewState[rec]()
			for i := 0; i < 10; i++ {
				if i == 2 || i == 4 {
					seed.Record(itemKey(i), nil, false)
					continue
				}
				seed.Record(itemKey(i), &rec{Value: i}, false)
			}
			seed.LastIndex = 10
			if err := store.Save(ctx, seed); err != nil {
				t.Fatalf("seed: %v", err)
			}

			calls := newCounter()
			stats, err := mustRunner(t, store, double(calls), tt.opts).Run(ctx, items)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if stats.Processed != tt.want {
				t.Errorf("processed %d, want %d", stats.Processed, tt.want)
			}
		})
	}
}

func TestStartOffsetDoesNotSkipEarlierItems(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore[rec]()
	items := workList(20)
	start := 10

	calls := newCounter()
	if _, err := mustRunner(t, store, double(calls), Options{Start: &start, Concurrency: 2}).Run(ctx, items); err != nil {
		t.Fatalf("run from start: %v", err)
	}
	state, _ := store.Load(ctx)
	if state.LastIndex != 0 {
		t.Errorf("lastIndex after --start on fresh checkpoint = %d, want 0", state.LastIndex)
	}

	stats, err := mustRunner(t, store, double(calls), Options{Concurrency: 2}).Run(ctx, items)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if stats.Selected != 10 {
		t.Errorf("resume selected %d, want 10", stats.Selected)
	}
	for i := 0; i < 20; i++ {
		if got := calls.get(itemKey(i)); got != 1 {
			t.Errorf("%s processed %d times, want 1", itemKey(i), got)
		}
	}
	state, _ = store.Load(ctx)
	if state.LastIndex != 20 {
		t.Errorf("lastIndex after resume = %d, want 20", state.LastIndex)
	}
}

func TestCheckpointFailureAborts(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore[rec]()
	seed := checkpoint.NewState[rec]()
	seed.Record("keep", &rec{Value: 1}, false)
	if err := store.Save(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store.FailWith = errors.New("no space left on device")

	_, err := mustRunner(t, store, double(newCounter()), Options{SaveEvery: 2}).Run(ctx, workList(10))
	if !errors.Is(err, ErrCheckpointIO) {
		t.Fatalf("Run error = %v, want ErrCheckpointIO", err)
	}

	store.FailWith = nil
	state, _ := store.Load(ctx)
	want := map[string]*rec{"keep": {Value: 1}}
	if diff := cmp.Diff(want, state.Results); diff != "" {
		t.Errorf("previous checkpoint altered (-want +got):\n%s", diff)
	}
}

func TestSummaryAndProgress(t *testing.T) {
	var buf bytes.Buffer
	var flushes int
	r := mustRunner(t, checkpoint.NewMemoryStore[rec](), double(newCounter()), Options{SaveEvery: 3, Concurrency: 1})
	r.Summary = &buf
	r.Progress = func(s Stats) { flushes++ }

	stats, err := r.Run(context.Background(), workList(7))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if flushes != 3 || stats.Flushes != 3 {
		t.Errorf("flushes = %d (stats %d), want 3", flushes, stats.Flushes)
	}
	if stats.Phase != PhaseDone {
		t.Errorf("phase = %s, want %s", stats.Phase, PhaseDone)
	}
	if !strings.Contains(buf.String(), "test") {
		t.Errorf("summary missing job name:\n%s", buf.String())
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts, err := Options{Limit: 5}.WithDefaults()
	if err != nil {
		t.Fatalf("WithDefaults: %v", err)
	}
	if opts.Concurrency != 4 || opts.SaveEvery != 10 || opts.Limit != 5 || opts.Start != nil {
		t.Errorf("unexpected options %+v", opts)
	}
}
