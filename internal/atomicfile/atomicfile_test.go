package atomicfile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestWriteJSONReplacesContent(t *testing.T) {
	fsys := New(afero.NewMemMapFs())
	path := "/data/state.json"

	if err := fsys.WriteJSON(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := fsys.WriteJSON(path, map[string]int{"b": 2}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	var got map[string]int
	found, err := fsys.ReadJSON(path, &got)
	if err != nil || !found {
		t.Fatalf("ReadJSON() found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(map[string]int{"b": 2}, got); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}

	entries, err := afero.ReadDir(fsys.Fs(), "/data")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestReadJSONMissingFile(t *testing.T) {
	fsys := New(afero.NewMemMapFs())
	var v map[string]any
	found, err := fsys.ReadJSON("/nope.json", &v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected found=false for a missing file")
	}
}

func TestWriteFileFailureKeepsPrevious(t *testing.T) {
	base := afero.NewMemMapFs()
	fsys := New(base)
	path := "/data/state.json"
	if err := fsys.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ro := New(afero.NewReadOnlyFs(base))
	if err := ro.WriteFile(path, []byte("new"), 0644); err == nil {
		t.Fatal("expected an error on a read-only filesystem")
	}

	data, err := afero.ReadFile(base, path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "old" {
		t.Errorf("previous content lost, got %q", data)
	}
}
