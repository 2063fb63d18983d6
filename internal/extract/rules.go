package extract

import (
	"regexp"
	"strings"

	"github.com/timmy/tractorhub/internal/domain"
)

// Rule maps one kind of specification row onto a record.
// The extractor hands each row to the first rule whose Match accepts it.
// Apply reports whether it stored a value.
type Rule struct {
	Name  string
	Match func(p Pair) bool
	Apply func(rec *domain.Tractor, p Pair, b Bounds) bool
}

var (
	gearsRe     = regexp.MustCompile(`(?i)(\d{1,2})\s*f\s*/\s*(\d{1,2})\s*r\b`)
	gearsWordRe = regexp.MustCompile(`(?i)(\d{1,2})\s*forward\D{0,12}(\d{1,2})\s*reverse`)
	cylRe       = regexp.MustCompile(`(?i)\b(\d{1,2})[- ]?(?:cyl(?:inders?)?)\b`)
	rpmRe       = regexp.MustCompile(`(?i)\b\d{3,4}(?:\s*e)?\b`)
	yearRe      = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
)

// matchLabel builds a matcher over the normalised label: any of the phrases
// must appear and none of the excluded words may.
func matchLabel(phrases []string, exclude ...string) func(Pair) bool {
	return func(p Pair) bool {
		l := normLabel(p.Label)
		return hasAny(l, phrases...) && !hasAny(l, exclude...)
	}
}

// DefaultRules returns the built-in rule list. Order matters: more specific
// rules come before the broad ones that would otherwise claim their rows.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "pto-rpm",
			Match: func(p Pair) bool {
				l := normLabel(p.Label)
				if hasAny(l, "rear rpm", "pto rpm") {
					return true
				}
				pto := hasPhrase(l, "pto") || strings.EqualFold(p.Section, "pto")
				return pto && (hasAny(l, "rpm", "speed", "speeds") || strings.Contains(strings.ToLower(p.Value), "rpm"))
			},
			Apply: applyPTORPM,
		},
		{
			Name: "pto-power",
			Match: func(p Pair) bool {
				l := normLabel(p.Label)
				return hasPhrase(l, "pto") && (HasPowerUnit(p.Value) || hasAny(l, "hp", "power", "horsepower"))
			},
			Apply: applyPTOPower,
		},
		{
			Name: "engine-power",
			Match: func(p Pair) bool {
				l := normLabel(p.Label)
				if hasAny(l, "pto", "drawbar", "steering", "take", "shuttle", "hydraulic", "brakes", "weight") {
					return false
				}
				if hasAny(l, "power", "hp", "horsepower", "rated output", "output") {
					return true
				}
				return hasAny(l, "engine", "engine gross", "engine net") && HasPowerUnit(p.Value)
			},
			Apply: applyEnginePower,
		},
		{
			Name:  "cylinders",
			Match: matchLabel([]string{"cylinders", "cylinder", "cyl", "number of cylinders"}, "bore", "stroke", "liner", "head"),
			Apply: applyCylinders,
		},
		{
			Name:  "displacement",
			Match: matchLabel([]string{"displacement", "engine displacement", "capacity cc", "cubic capacity"}),
			Apply: applyDisplacement,
		},
		{
			Name: "fuel-capacity",
			Match: func(p Pair) bool {
				l := normLabel(p.Label)
				if hasAny(l, "fuel capacity", "fuel tank", "tank capacity", "fuel tank capacity") {
					return true
				}
				return strings.Contains(strings.ToLower(p.Section), "capacit") && hasPhrase(l, "fuel")
			},
			Apply: applyFuelCapacity,
		},
		{
			Name: "hydraulic-capacity",
			Match: func(p Pair) bool {
				l := normLabel(p.Label)
				if hasAny(l, "hydraulic capacity", "hydraulic fluid", "hydraulic oil", "hydraulic system capacity") {
					return true
				}
				return strings.Contains(strings.ToLower(p.Section), "capacit") && hasAny(l, "hydraulic", "hydraulic system")
			},
			Apply: applyHydraulicCapacity,
		},
		{
			Name:  "hydraulic-flow",
			Match: matchLabel([]string{"pump flow", "hydraulic flow", "total flow", "implement flow", "flow", "pump capacity"}, "steering"),
			Apply: applyHydraulicFlow,
		},
		{
			Name:  "hydraulic-type",
			Match: matchLabel([]string{"hydraulic system", "hydraulics", "hydraulic type", "hydraulic"}, "pressure", "pump", "valves", "remote", "remotes"),
			Apply: applyHydraulicType,
		},
		{
			Name:  "fuel-type",
			Match: matchLabel([]string{"fuel", "fuel type"}, "capacity", "tank", "consumption", "injection", "pump", "filter"),
			Apply: applyFuelType,
		},
		{
			Name:  "cooling",
			Match: matchLabel([]string{"cooling", "coolant", "cooling system"}, "capacity"),
			Apply: applyCooling,
		},
		{
			Name:  "aspiration",
			Match: matchLabel([]string{"aspiration", "turbo", "turbocharged", "turbocharger", "air intake"}),
			Apply: applyAspiration,
		},
		{
			Name:  "engine-detail",
			Match: matchLabel([]string{"engine", "engine model", "engine make", "engine manufacturer", "motor"}, "oil", "rpm", "speed"),
			Apply: applyEngineDetail,
		},
		{
			Name:  "gears",
			Match: matchLabel([]string{"gears", "speeds", "forward reverse", "number of gears"}),
			Apply: applyGears,
		},
		{
			Name:  "transmission",
			Match: matchLabel([]string{"transmission", "transmission type", "gearbox"}, "oil", "capacity"),
			Apply: applyTransmission,
		},
		{
			Name:  "weight",
			Match: matchLabel([]string{"weight", "operating weight", "shipping weight", "ballasted weight", "base weight", "mass"}, "capacity", "lift", "axle", "ratio"),
			Apply: applyWeight,
		},
		{
			Name:  "wheelbase",
			Match: matchLabel([]string{"wheelbase", "wheel base"}),
			Apply: dimension(func(d *domain.Dimensions, v float64) { d.WheelbaseMM = v }),
		},
		{
			Name:  "length",
			Match: matchLabel([]string{"length", "overall length"}, "stroke", "cab"),
			Apply: dimension(func(d *domain.Dimensions, v float64) { d.LengthMM = v }),
		},
		{
			Name:  "width",
			Match: matchLabel([]string{"width", "overall width"}, "tread", "track", "tire", "tyre", "cut", "deck"),
			Apply: dimension(func(d *domain.Dimensions, v float64) { d.WidthMM = v }),
		},
		{
			Name:  "height",
			Match: matchLabel([]string{"height", "overall height", "height to roof", "height to rops", "height to cab"}, "clearance", "lift", "hitch"),
			Apply: dimension(func(d *domain.Dimensions, v float64) { d.HeightMM = v }),
		},
		{
			Name:  "year",
			Match: matchLabel([]string{"years built", "year built", "year", "years", "production", "production years", "model year", "introduced", "manufactured", "built"}),
			Apply: applyYear,
		},
	}
}

func applyPTORPM(rec *domain.Tractor, p Pair, _ Bounds) bool {
	speeds := rpmRe.FindAllString(p.Value, -1)
	if len(speeds) == 0 || rec.PTORPM != "" {
		return false
	}
	for i, s := range speeds {
		speeds[i] = strings.ReplaceAll(s, " ", "")
	}
	rec.PTORPM = strings.Join(speeds, "/")
	return true
}

func applyPTOPower(rec *domain.Tractor, p Pair, b Bounds) bool {
	if rec.PTOHP != 0 {
		return false
	}
	hp, kw := ParsePower(p.Value)
	if hp == 0 && kw > 0 {
		hp = HPFromKW(kw)
	}
	if !b.pto(hp) {
		return false
	}
	rec.PTOHP = hp
	return true
}

func applyEnginePower(rec *domain.Tractor, p Pair, b Bounds) bool {
	hp, kw := ParsePower(p.Value)
	stored := false
	if rec.Engine.PowerHP == 0 && hp > 0 && b.hp(hp) {
		rec.Engine.PowerHP = hp
		stored = true
	}
	if rec.Engine.PowerKW == 0 && kw > 0 && b.kw(kw) {
		rec.Engine.PowerKW = kw
		stored = true
	}
	return stored
}

func applyCylinders(rec *domain.Tractor, p Pair, b Bounds) bool {
	if rec.Engine.Cylinders != 0 {
		return false
	}
	v, ok := firstNumber(p.Value)
	if !ok || v != float64(int(v)) || !b.cylinders(int(v)) {
		return false
	}
	rec.Engine.Cylinders = int(v)
	return true
}

func applyDisplacement(rec *domain.Tractor, p Pair, _ Bounds) bool {
	if rec.Engine.DisplacementL != 0 {
		return false
	}
	v, ok := ParseDisplacement(p.Value)
	if !ok || v <= 0 || v > 30 {
		return false
	}
	rec.Engine.DisplacementL = v
	return true
}

func ensureCapacities(rec *domain.Tractor) *domain.Capacities {
	if rec.Capacities == nil {
		rec.Capacities = &domain.Capacities{}
	}
	return rec.Capacities
}

func applyFuelCapacity(rec *domain.Tractor, p Pair, _ Bounds) bool {
	v, ok := ParseVolume(p.Value)
	if !ok || v <= 0 {
		return false
	}
	c := ensureCapacities(rec)
	if c.FuelL != 0 {
		return false
	}
	c.FuelL = v
	return true
}

func applyHydraulicCapacity(rec *domain.Tractor, p Pair, _ Bounds) bool {
	v, ok := ParseVolume(p.Value)
	if !ok || v <= 0 {
		return false
	}
	c := ensureCapacities(rec)
	if c.HydraulicL != 0 {
		return false
	}
	c.HydraulicL = v
	return true
}

func applyHydraulicFlow(rec *domain.Tractor, p Pair, _ Bounds) bool {
	if rec.HydraulicSystem.PumpFlowLPM != 0 {
		return false
	}
	v, ok := ParseFlow(p.Value)
	if !ok || v <= 0 {
		return false
	}
	rec.HydraulicSystem.PumpFlowLPM = v
	return true
}

func applyHydraulicType(rec *domain.Tractor, p Pair, _ Bounds) bool {
	if rec.HydraulicSystem.Type != "" {
		return false
	}
	v := strings.ToLower(p.Value)
	switch {
	case strings.Contains(v, "closed center"), strings.Contains(v, "closed centre"):
		rec.HydraulicSystem.Type = "closed center"
	case strings.Contains(v, "open center"), strings.Contains(v, "open centre"):
		rec.HydraulicSystem.Type = "open center"
	case strings.Contains(v, "load sensing"), strings.Contains(v, "load-sensing"):
		rec.HydraulicSystem.Type = "load sensing"
	default:
		if numberRe.MatchString(v) || len(v) > 60 {
			return false
		}
		rec.HydraulicSystem.Type = v
	}
	return true
}

// FuelType normalises a free-text fuel description.
func FuelType(s string) string {
	v := strings.ToLower(s)
	switch {
	case strings.Contains(v, "diesel"):
		return "diesel"
	case strings.Contains(v, "gasoline"), strings.Contains(v, "petrol"), v == "gas", strings.HasPrefix(v, "gas "):
		return "gasoline"
	case strings.Contains(v, "lpg"), strings.Contains(v, "propane"):
		return "lpg"
	case strings.Contains(v, "electric"), strings.Contains(v, "battery"):
		return "electric"
	case strings.Contains(v, "kerosene"), strings.Contains(v, "distillate"):
		return "kerosene"
	}
	return ""
}

func applyFuelType(rec *domain.Tractor, p Pair, _ Bounds) bool {
	if rec.Engine.FuelType != "" {
		return false
	}
	f := FuelType(p.Value)
	if f == "" {
		return false
	}
	rec.Engine.FuelType = f
	return true
}

func applyCooling(rec *domain.Tractor, p Pair, _ Bounds) bool {
	v := strings.ToLower(p.Value)
	switch {
	case strings.Contains(v, "air"):
		rec.Engine.Cooling = "air"
	case strings.Contains(v, "liquid"), strings.Contains(v, "water"):
		rec.Engine.Cooling = "liquid"
	default:
		return false
	}
	return true
}

func applyAspiration(rec *domain.Tractor, p Pair, _ Bounds) bool {
	v := strings.ToLower(p.Value)
	if strings.Contains(v, "turbo") || v == "yes" {
		rec.Engine.Turbocharged = true
		return true
	}
	return false
}

// applyEngineDetail reads the free-text engine description, e.g.
// "Kubota V3307-CR-T 3.3L 4-cylinder turbo diesel".
func applyEngineDetail(rec *domain.Tractor, p Pair, b Bounds) bool {
	stored := false
	words := strings.Fields(p.Value)
	if rec.Engine.Manufacturer == "" && len(words) > 0 && isWord(words[0]) && FuelType(words[0]) == "" {
		rec.Engine.Manufacturer = words[0]
		stored = true
	}
	if rec.Engine.Cylinders == 0 {
		if m := cylRe.FindStringSubmatch(p.Value); m != nil {
			if v, ok := parseNumber(m[1]); ok && b.cylinders(int(v)) {
				rec.Engine.Cylinders = int(v)
				stored = true
			}
		}
	}
	if rec.Engine.DisplacementL == 0 {
		if v, ok := ParseDisplacement(p.Value); ok && v > 0 && v <= 30 {
			rec.Engine.DisplacementL = v
			stored = true
		}
	}
	if rec.Engine.FuelType == "" {
		if f := FuelType(p.Value); f != "" {
			rec.Engine.FuelType = f
			stored = true
		}
	}
	if strings.Contains(strings.ToLower(p.Value), "turbo") {
		rec.Engine.Turbocharged = true
		stored = true
	}
	return stored
}

func isWord(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-') {
			return false
		}
	}
	return true
}

// Gears extracts a forward/reverse gear count like "12F/12R".
func Gears(s string) string {
	if m := gearsRe.FindStringSubmatch(s); m != nil {
		return m[1] + "F/" + m[2] + "R"
	}
	if m := gearsWordRe.FindStringSubmatch(s); m != nil {
		return m[1] + "F/" + m[2] + "R"
	}
	return ""
}

func applyGears(rec *domain.Tractor, p Pair, _ Bounds) bool {
	if rec.Transmission.Gears != "" {
		return false
	}
	g := Gears(p.Value)
	if g == "" {
		if strings.Contains(strings.ToLower(p.Value), "infinite") {
			g = "infinite"
		} else {
			return false
		}
	}
	rec.Transmission.Gears = g
	return true
}

// TransmissionType classifies a transmission description.
func TransmissionType(s string) string {
	v := strings.ToLower(s)
	switch {
	case strings.Contains(v, "hydrostatic"), strings.Contains(v, "hst"):
		return "hydrostatic"
	case strings.Contains(v, "cvt"), strings.Contains(v, "continuously variable"), strings.Contains(v, "vario"), strings.Contains(v, "ivt"):
		return "cvt"
	case strings.Contains(v, "powershift"), strings.Contains(v, "power shift"):
		return "powershift"
	case strings.Contains(v, "shuttle"), strings.Contains(v, "powerreverser"), strings.Contains(v, "power reverser"):
		return "shuttle"
	case strings.Contains(v, "synchro"):
		return "synchromesh"
	case strings.Contains(v, "gear"), strings.Contains(v, "collar"), strings.Contains(v, "manual"):
		return "manual"
	}
	return ""
}

func applyTransmission(rec *domain.Tractor, p Pair, _ Bounds) bool {
	if rec.Transmission.Description != "" {
		return false
	}
	rec.Transmission.Description = p.Value
	if t := TransmissionType(p.Value); t != "" {
		rec.Transmission.Type = t
	}
	if rec.Transmission.Gears == "" {
		rec.Transmission.Gears = Gears(p.Value)
	}
	return true
}

func applyWeight(rec *domain.Tractor, p Pair, b Bounds) bool {
	if rec.WeightKG != 0 {
		return false
	}
	v, ok := ParseWeight(p.Value)
	if !ok || !b.weight(v) {
		return false
	}
	rec.WeightKG = v
	return true
}

func dimension(set func(d *domain.Dimensions, v float64)) func(*domain.Tractor, Pair, Bounds) bool {
	return func(rec *domain.Tractor, p Pair, _ Bounds) bool {
		v, ok := ParseLength(p.Value)
		if !ok || v <= 0 || v > 20000 {
			return false
		}
		if rec.Dimensions == nil {
			rec.Dimensions = &domain.Dimensions{}
		}
		before := *rec.Dimensions
		set(rec.Dimensions, v)
		if before != *rec.Dimensions && !dimensionWasSet(before, *rec.Dimensions) {
			return true
		}
		*rec.Dimensions = before
		return false
	}
}

// dimensionWasSet reports whether the field changed between before and after
// already held a value, so the first row for a dimension wins.
func dimensionWasSet(before, after domain.Dimensions) bool {
	return (before.WheelbaseMM != 0 && before.WheelbaseMM != after.WheelbaseMM) ||
		(before.LengthMM != 0 && before.LengthMM != after.LengthMM) ||
		(before.WidthMM != 0 && before.WidthMM != after.WidthMM) ||
		(before.HeightMM != 0 && before.HeightMM != after.HeightMM)
}

func applyYear(rec *domain.Tractor, p Pair, b Bounds) bool {
	if rec.Year != 0 {
		return false
	}
	for _, m := range yearRe.FindAllString(p.Value, -1) {
		v, _ := parseNumber(m)
		if b.year(int(v)) {
			rec.Year = int(v)
			return true
		}
	}
	return false
}
