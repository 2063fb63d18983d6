package extract

import (
	"regexp"
	"strings"

	"github.com/timmy/tractorhub/internal/domain"
)

var (
	textHPRe  = regexp.MustCompile(`(?i)\b(\d{1,4}(?:\.\d+)?)\s*(?:hp|horsepower)\b`)
	textKWRe  = regexp.MustCompile(`(?i)\b(\d{1,3}(?:\.\d+)?)\s*kw\b`)
	textCylRe = regexp.MustCompile(`(?i)\b(\d{1,2})[- ]cylinders?\b|\b(\d{1,2})\s*cyl\b`)
)

// ptoWindow is how far before a match the text is checked for "pto".
const ptoWindow = 24

// Fallback scans the full page text for power and cylinder count when the
// structured pass left them unset. It never overwrites a value.
func Fallback(rec *domain.Tractor, text string, b Bounds) {
	if rec.Engine.PowerHP == 0 {
		if v, ok := firstOutsidePTO(textHPRe, text, func(v float64) bool { return b.hp(v) }); ok {
			rec.Engine.PowerHP = v
		}
	}
	if rec.Engine.PowerKW == 0 {
		if v, ok := firstOutsidePTO(textKWRe, text, func(v float64) bool { return b.kw(v) }); ok {
			rec.Engine.PowerKW = v
		}
	}
	if rec.Engine.Cylinders == 0 {
		for _, m := range textCylRe.FindAllStringSubmatch(text, -1) {
			digits := m[1]
			if digits == "" {
				digits = m[2]
			}
			v, ok := parseNumber(digits)
			if ok && b.cylinders(int(v)) {
				rec.Engine.Cylinders = int(v)
				break
			}
		}
	}
}

func firstOutsidePTO(re *regexp.Regexp, text string, accept func(float64) bool) (float64, bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		from := max(0, loc[0]-ptoWindow)
		if strings.Contains(strings.ToLower(text[from:loc[0]]), "pto") {
			continue
		}
		v, ok := parseNumber(text[loc[2]:loc[3]])
		if ok && accept(v) {
			return v, true
		}
	}
	return 0, false
}
