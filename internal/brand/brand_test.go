package brand

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestCanonical(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"john deere", "John Deere", true},
		{"JOHN-DEERE", "John Deere", true},
		{"JD", "John Deere", true},
		{"Massey  Ferguson", "Massey Ferguson", true},
		{"mf", "Massey Ferguson", true},
		{"case-ih", "Case IH", true},
		{"Deutz Fahr", "Deutz-Fahr", true},
		{"ls", "LS", true},
		{"Mahindra & Mahindra", "Mahindra", true},
		{"Acme", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := r.Canonical(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Canonical(%q) = %q,%v want %q,%v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolveUnknownIsTitleCasedAndReported(t *testing.T) {
	r := NewResolver()
	if got := r.Resolve("kubotta"); got != "Kubotta" {
		t.Errorf("Resolve(kubotta) = %q", got)
	}
	if diff := cmp.Diff(map[string]string{"Kubotta": "Kubota"}, r.Unknown()); diff != "" {
		t.Errorf("unknown report (-want +got):\n%s", diff)
	}
	if got := r.Resolve("kubota"); got != "Kubota" {
		t.Errorf("Resolve(kubota) = %q", got)
	}
}

func TestSplit(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		text, brand, model string
		known              bool
	}{
		{"John Deere 5075E", "John Deere", "5075E", true},
		{"New Holland T7.270 Auto Command", "New Holland", "T7.270 Auto Command", true},
		{"Case IH Magnum 340", "Case IH", "Magnum 340", true},
		{"Ford 8N", "Ford", "8N", true},
		{"Zzyzx 100", "Zzyzx", "100", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			b, m, known := r.Split(tt.text)
			if b != tt.brand || m != tt.model || known != tt.known {
				t.Errorf("Split(%q) = %q,%q,%v want %q,%q,%v", tt.text, b, m, known, tt.brand, tt.model, tt.known)
			}
		})
	}
}

func TestSplitCompound(t *testing.T) {
	r := NewResolver()
	tests := []struct {
		first, rest  string
		brand, model string
		ok           bool
	}{
		{"New", "Holland T6.180", "New Holland", "T6.180", true},
		{"john", "deere 6R 150", "John Deere", "6R 150", true},
		{"Massey", "Ferguson 135", "Massey Ferguson", "135", true},
		{"Deutz", "Fahr Agrotron 6190", "Deutz-Fahr", "Agrotron 6190", true},
		{"Kubota", "L3901", "", "", false},
		{"New", "Idea 323", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.first+" "+tt.rest, func(t *testing.T) {
			b, m, ok := r.SplitCompound(tt.first, tt.rest)
			if b != tt.brand || m != tt.model || ok != tt.ok {
				t.Errorf("SplitCompound(%q,%q) = %q,%q,%v", tt.first, tt.rest, b, m, ok)
			}
		})
	}
}

func TestLoadMap(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `{
	// curated
	"john deere": "https://www.deere.com",
	"Kubota": "https://www.kubota.com",
	"Empty": "",
}`
	if err := afero.WriteFile(fs, "/websites.json", []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadMap(context.Background(), fs, "/websites.json", NewResolver())
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	want := map[string]string{"John Deere": "https://www.deere.com", "Kubota": "https://www.kubota.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("map (-want +got):\n%s", diff)
	}

	missing, err := LoadMap(context.Background(), fs, "/missing.json", nil)
	if err != nil || len(missing) != 0 {
		t.Errorf("missing file: got %v, %v; want empty map and no error", missing, err)
	}
}

func TestAssetsIsLogo(t *testing.T) {
	a := &Assets{Logos: map[string]string{"Fendt": "https://cdn.example.com/logos/fendt.png"}}
	if !a.IsLogo("http://CDN.example.com/logos/fendt.png?w=200") {
		t.Error("expected logo match ignoring scheme, case and query")
	}
	if a.IsLogo("https://cdn.example.com/photos/fendt-942.jpg") {
		t.Error("photo should not match a logo")
	}
	var none *Assets
	if none.IsLogo("x") {
		t.Error("nil assets never match")
	}
}
