package extract

import (
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/timmy/tractorhub/internal/config"
)

// Bounds holds the plausible range for numeric fields. Values outside a range
// are discarded, never clamped.
type Bounds struct {
	MinHP, MaxHP               float64
	MinCylinders, MaxCylinders int
	MinKW, MaxKW               float64
	MinPTOHP, MaxPTOHP         float64
	MinWeightKG, MaxWeightKG   float64
	MinYear, MaxYear           int
}

// DefaultBounds returns the standard ranges. The latest accepted year is the
// year after now.
func DefaultBounds(now time.Time) Bounds {
	return Bounds{
		MinHP: 5, MaxHP: 1000,
		MinCylinders: 1, MaxCylinders: 12,
		MinKW: 3.7, MaxKW: 750,
		MinPTOHP: 1, MaxPTOHP: 1000,
		MinWeightKG: 50, MaxWeightKG: 60000,
		MinYear: 1890, MaxYear: now.Year() + 1,
	}
}

// BoundsFromConfig converts configured ranges. Unset fields keep the
// DefaultBounds values; the latest year is always derived from now.
func BoundsFromConfig(c config.BoundsConfig, now time.Time) (Bounds, error) {
	b := Bounds{
		MinHP: c.MinHP, MaxHP: c.MaxHP,
		MinCylinders: c.MinCylinders, MaxCylinders: c.MaxCylinders,
		MinKW: c.MinKW, MaxKW: c.MaxKW,
		MinPTOHP: c.MinPTOHP, MaxPTOHP: c.MaxPTOHP,
		MinWeightKG: c.MinWeightKG, MaxWeightKG: c.MaxWeightKG,
		MinYear: c.MinYear,
	}
	if err := mergo.Merge(&b, DefaultBounds(now)); err != nil {
		return b, fmt.Errorf("merge bounds: %w", err)
	}
	return b, nil
}

func (b Bounds) hp(v float64) bool     { return v >= b.MinHP && v <= b.MaxHP }
func (b Bounds) kw(v float64) bool     { return v >= b.MinKW && v <= b.MaxKW }
func (b Bounds) pto(v float64) bool    { return v >= b.MinPTOHP && v <= b.MaxPTOHP }
func (b Bounds) weight(v float64) bool { return v >= b.MinWeightKG && v <= b.MaxWeightKG }
func (b Bounds) cylinders(v int) bool  { return v >= b.MinCylinders && v <= b.MaxCylinders }
func (b Bounds) year(v int) bool       { return v >= b.MinYear && v <= b.MaxYear }
