package normalize

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/timmy/tractorhub/internal/brand"
	"github.com/timmy/tractorhub/internal/domain"
)

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"John Deere 5075E":             "john-deere-5075e",
		"  New Holland T7.270 ":        "new-holland-t7-270",
		"Deutz-Fahr Agrotron--X":       "deutz-fahr-agrotron-x",
		"Massey Ferguson 135 (diesel)": "massey-ferguson-135-diesel",
		"Hürlimann D-100":              "hurlimann-d-100",
		"Zetor Proxima 120 Črna":       "zetor-proxima-120-crna",
		"":                             "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIDIsPureFunctionOfBrandAndModel(t *testing.T) {
	if ID("John Deere", "5075E") != ID("john deere", "5075e") {
		t.Error("ID must ignore case")
	}
	if ID("John Deere", "5075E") != "john-deere-5075e" {
		t.Errorf("unexpected id %q", ID("John Deere", "5075E"))
	}
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(brand.NewResolver())
	tests := []struct {
		name  string
		in    domain.Tractor
		brand string
		model string
		id    string
	}{
		{"alias", domain.Tractor{Brand: "JD", Model: "6R  150"}, "John Deere", "6R 150", "john-deere-6r-150"},
		{"split compound", domain.Tractor{Brand: "New", Model: "Holland T6.180"}, "New Holland", "T6.180", "new-holland-t6-180"},
		{"unknown", domain.Tractor{Brand: "acme farm", Model: "X1"}, "Acme Farm", "X1", "acme-farm-x1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.in
			n.Normalize(context.Background(), &rec)
			if rec.Brand != tt.brand || rec.Model != tt.model || rec.ID != tt.id || rec.Slug != tt.id {
				t.Errorf("got brand=%q model=%q id=%q slug=%q", rec.Brand, rec.Model, rec.ID, rec.Slug)
			}
		})
	}
}

func TestMergeCuratedWins(t *testing.T) {
	curated := []domain.Tractor{
		{ID: "john-deere-5075e", Brand: "John Deere", Model: "5075E", Description: "curated"},
	}
	extracted := []domain.Tractor{
		{ID: "john-deere-5075e", Brand: "John Deere", Model: "5075E", Description: "scraped"},
		{ID: "kubota-l3901", Brand: "Kubota", Model: "L3901", Description: "first"},
		{ID: "kubota-l3901", Brand: "Kubota", Model: "L3901", Description: "second"},
		{Brand: "Zetor", Model: "Proxima 100"},
	}

	got, stats := Merge(curated, extracted)

	var descs []string
	for _, r := range got {
		descs = append(descs, r.Description)
	}
	if diff := cmp.Diff([]string{"curated", "first", ""}, descs); diff != "" {
		t.Errorf("merged records (-want +got):\n%s", diff)
	}
	want := MergeStats{Curated: 1, Extracted: 4, Added: 2, DroppedCollisions: 1, DroppedDuplicates: 1, Total: 3}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
}
