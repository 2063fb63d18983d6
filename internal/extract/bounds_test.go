package extract

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/timmy/tractorhub/internal/config"
)

func TestBoundsFromConfig(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty config keeps defaults", func(t *testing.T) {
		got, err := BoundsFromConfig(config.BoundsConfig{}, now)
		if err != nil {
			t.Fatalf("BoundsFromConfig() error = %v", err)
		}
		if diff := cmp.Diff(DefaultBounds(now), got); diff != "" {
			t.Errorf("bounds mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("configured values override", func(t *testing.T) {
		got, err := BoundsFromConfig(config.BoundsConfig{MinHP: 10, MaxHP: 600, MinYear: 1900}, now)
		if err != nil {
			t.Fatalf("BoundsFromConfig() error = %v", err)
		}
		if got.MinHP != 10 || got.MaxHP != 600 || got.MinYear != 1900 {
			t.Errorf("got %+v, want configured hp and year range", got)
		}
		if got.MaxCylinders != 12 || got.MaxYear != 2025 {
			t.Errorf("got %+v, want default cylinders and year ceiling", got)
		}
		if got.hp(5) {
			t.Error("5 hp accepted below configured minimum")
		}
	})
}
