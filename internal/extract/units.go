package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Conversion factors into the catalog's units.
const (
	LbToKg    = 0.453592
	InToMM    = 25.4
	FtToMM    = 304.8
	CMToMM    = 10.0
	MToMM     = 1000.0
	KWToHP    = 1.34102
	PSToHP    = 0.98632
	GalToL    = 3.78541
	CuInToL   = 0.0163871
	TonneToKg = 1000.0
)

const num = `(\d+(?:[.,]\d+)*)`

var (
	numberRe = regexp.MustCompile(num)
	hpRe     = regexp.MustCompile(`(?i)` + num + `\s*(?:hp|horsepower|bhp)\b`)
	psRe     = regexp.MustCompile(`(?i)` + num + `\s*(?:ps|cv)\b`)
	kwRe     = regexp.MustCompile(`(?i)` + num + `\s*kw\b`)

	kgRe    = regexp.MustCompile(`(?i)` + num + `\s*(?:kg|kgs|kilograms?)\b`)
	tonneRe = regexp.MustCompile(`(?i)` + num + `\s*(?:t|tonnes?|metric tons?)\b`)
	lbRe    = regexp.MustCompile(`(?i)` + num + `\s*(?:lbs?|pounds?)\b`)

	mmRe = regexp.MustCompile(`(?i)` + num + `\s*(?:mm|millimet(?:er|re)s?)\b`)
	cmRe = regexp.MustCompile(`(?i)` + num + `\s*(?:cm|centimet(?:er|re)s?)\b`)
	mRe  = regexp.MustCompile(`(?i)` + num + `\s*(?:m|met(?:er|re)s?)\b`)
	inRe = regexp.MustCompile(`(?i)` + num + `\s*(?:in\b|inch(?:es)?\b|")`)
	ftRe = regexp.MustCompile(`(?i)` + num + `\s*(?:ft|feet|foot)\b`)
	// 7 ft 2 in, 7' 2"
	ftInRe = regexp.MustCompile(`(?i)` + num + `\s*(?:ft\b|feet\b|foot\b|')\s*` + num + `\s*(?:in\b|inch(?:es)?\b|")`)

	litreRe = regexp.MustCompile(`(?i)` + num + `\s*(?:l|ltrs?|lit(?:er|re)s?)\b`)
	galRe   = regexp.MustCompile(`(?i)` + num + `\s*(?:gal|gals|gallons?)\b`)
	lpmRe   = regexp.MustCompile(`(?i)` + num + `\s*(?:l/min|lpm|lit(?:er|re)s? per minute)`)
	gpmRe   = regexp.MustCompile(`(?i)` + num + `\s*(?:gpm|gal/min|gallons? per minute)`)
	ccRe    = regexp.MustCompile(`(?i)` + num + `\s*(?:cc|cm3|cm³)`)
	cuInRe  = regexp.MustCompile(`(?i)` + num + `\s*(?:ci\b|cu\.?\s*in|cubic inch(?:es)?)`)
)

// parseNumber reads a decimal number, accepting thousands separators and a
// decimal comma.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) != 3 {
			s = parts[0] + "." + parts[1]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// firstNumber returns the first number found in s.
func firstNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	return parseNumber(m)
}

func quantity(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return parseNumber(m[1])
}

// HasPowerUnit reports whether s mentions a power quantity.
func HasPowerUnit(s string) bool {
	return hpRe.MatchString(s) || kwRe.MatchString(s) || psRe.MatchString(s)
}

// ParsePower reads horsepower and kilowatts from s. A bare number is read as
// horsepower; metric horsepower is converted.
func ParsePower(s string) (hp, kw float64) {
	if v, ok := quantity(hpRe, s); ok {
		hp = v
	} else if v, ok := quantity(psRe, s); ok {
		hp = round(v*PSToHP, 0)
	}
	if v, ok := quantity(kwRe, s); ok {
		kw = v
	}
	if hp == 0 && kw == 0 {
		if v, ok := firstNumber(s); ok {
			hp = v
		}
	}
	return hp, kw
}

// HPFromKW converts kilowatts to whole horsepower.
func HPFromKW(kw float64) float64 {
	return round(kw*KWToHP, 0)
}

// KWFromHP converts horsepower to kilowatts with one decimal.
func KWFromHP(hp float64) float64 {
	return round(hp/KWToHP, 1)
}

// ParseWeight returns kilograms. Metric quantities are preferred when a value
// states both systems. Unitless numbers are ambiguous and rejected.
func ParseWeight(s string) (float64, bool) {
	if v, ok := quantity(kgRe, s); ok {
		return v, true
	}
	if v, ok := quantity(tonneRe, s); ok {
		return v * TonneToKg, true
	}
	if v, ok := quantity(lbRe, s); ok {
		return round(v*LbToKg, 0), true
	}
	return 0, false
}

// ParseLength returns millimetres.
func ParseLength(s string) (float64, bool) {
	if v, ok := quantity(mmRe, s); ok {
		return v, true
	}
	if v, ok := quantity(cmRe, s); ok {
		return round(v*CMToMM, 0), true
	}
	if v, ok := quantity(mRe, s); ok {
		return round(v*MToMM, 0), true
	}
	if m := ftInRe.FindStringSubmatch(s); m != nil {
		ft, okFt := parseNumber(m[1])
		in, okIn := parseNumber(m[2])
		if !okFt || !okIn {
			return 0, false
		}
		return round(ft*FtToMM+in*InToMM, 0), true
	}
	if v, ok := quantity(inRe, s); ok {
		return round(v*InToMM, 0), true
	}
	if v, ok := quantity(ftRe, s); ok {
		return round(v*FtToMM, 0), true
	}
	return 0, false
}

// ParseVolume returns litres.
func ParseVolume(s string) (float64, bool) {
	if v, ok := quantity(litreRe, s); ok {
		return v, true
	}
	if v, ok := quantity(galRe, s); ok {
		return round(v*GalToL, 1), true
	}
	return 0, false
}

// ParseFlow returns litres per minute.
func ParseFlow(s string) (float64, bool) {
	if v, ok := quantity(lpmRe, s); ok {
		return v, true
	}
	if v, ok := quantity(gpmRe, s); ok {
		return round(v*GalToL, 1), true
	}
	return 0, false
}

// ParseDisplacement returns litres.
func ParseDisplacement(s string) (float64, bool) {
	if v, ok := quantity(litreRe, s); ok {
		return v, true
	}
	if v, ok := quantity(ccRe, s); ok {
		return round(v/1000, 2), true
	}
	if v, ok := quantity(cuInRe, s); ok {
		return round(v*CuInToL, 2), true
	}
	return 0, false
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
