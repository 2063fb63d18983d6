// Package pricing assigns heuristic price bands to catalog records that have
// none. The estimate is deterministic for a given clock.
package pricing

import (
	"math"
	"time"

	"github.com/timmy/tractorhub/internal/domain"
)

// Tier is a brand price positioning.
type Tier string

const (
	TierPremium  Tier = "premium"
	TierStandard Tier = "standard"
	TierValue    Tier = "value"
)

var tierMultiplier = map[Tier]float64{
	TierPremium:  1.25,
	TierStandard: 1.0,
	TierValue:    0.8,
}

var brandTiers = map[string]Tier{
	"John Deere":  TierPremium,
	"Fendt":       TierPremium,
	"Claas":       TierPremium,
	"Case IH":     TierPremium,
	"Valtra":      TierPremium,
	"JCB":         TierPremium,
	"Caterpillar": TierPremium,
	"Challenger":  TierPremium,
	"Steiger":     TierPremium,

	"Mahindra": TierValue,
	"Sonalika": TierValue,
	"Swaraj":   TierValue,
	"Solis":    TierValue,
	"Belarus":  TierValue,
	"Montana":  TierValue,
	"Branson":  TierValue,
	"TYM":      TierValue,
	"LS":       TierValue,
	"Ursus":    TierValue,
	"Zetor":    TierValue,
}

// category holds the per-type constants.
type category struct {
	perHP     float64
	defaultHP float64
	floor     float64
}

var categories = map[domain.TractorType]category{
	domain.TractorTypeFarm:       {perHP: 800, defaultHP: 75, floor: 3000},
	domain.TractorTypeLawn:       {perHP: 150, defaultHP: 20, floor: 800},
	domain.TractorTypeIndustrial: {perHP: 950, defaultHP: 90, floor: 8000},
}

const (
	depreciationPerYear = 0.02
	depreciationFloor   = 0.5
	smallUnitHP         = 25
	smallUnitSurcharge  = 1.10
	largeUnitHP         = 300
	largeUnitSurcharge  = 1.15
	bandLow             = 0.8
	bandHigh            = 1.2
)

// TierFor returns the tier of a canonical brand. Unlisted brands are
// standard.
func TierFor(brand string) Tier {
	if t, ok := brandTiers[brand]; ok {
		return t
	}
	return TierStandard
}

// Estimator computes price bands relative to a clock.
type Estimator struct {
	now func() time.Time
}

// NewEstimator creates an estimator. A nil clock uses time.Now.
func NewEstimator(now func() time.Time) *Estimator {
	if now == nil {
		now = time.Now
	}
	return &Estimator{now: now}
}

// Base returns the depreciated, surcharged base price of rec.
func (e *Estimator) Base(rec domain.Tractor) float64 {
	cat, ok := categories[rec.Type]
	if !ok {
		cat = categories[domain.TractorTypeFarm]
	}

	hp := rec.Engine.PowerHP
	if hp <= 0 {
		hp = cat.defaultHP
	}

	base := hp * cat.perHP * tierMultiplier[TierFor(rec.Brand)]
	base *= math.Max(depreciationFloor, 1-float64(e.age(rec))*depreciationPerYear)

	switch {
	case hp < smallUnitHP:
		base *= smallUnitSurcharge
	case hp > largeUnitHP:
		base *= largeUnitSurcharge
	}
	return base
}

// Estimate returns the price band for rec.
func (e *Estimator) Estimate(rec domain.Tractor) domain.PriceRange {
	cat, ok := categories[rec.Type]
	if !ok {
		cat = categories[domain.TractorTypeFarm]
	}
	base := e.Base(rec)
	return domain.PriceRange{
		Min: int(math.Round(math.Max(base*bandLow, cat.floor))),
		Max: int(math.Round(math.Max(base*bandHigh, cat.floor))),
	}
}

// EstimateMissing fills PriceRange on records that have none and returns how
// many were filled. Existing bands are never touched.
func (e *Estimator) EstimateMissing(records []domain.Tractor) int {
	filled := 0
	for i := range records {
		if records[i].PriceRange != nil {
			continue
		}
		band := e.Estimate(records[i])
		records[i].PriceRange = &band
		filled++
	}
	return filled
}

func (e *Estimator) age(rec domain.Tractor) int {
	if rec.Year <= 0 {
		return 0
	}
	age := e.now().Year() - rec.Year
	if age < 0 {
		return 0
	}
	return age
}
