package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/timmy/tractorhub/internal/domain"
)

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Describe builds the record description from its fields.
func Describe(rec *domain.Tractor) string {
	var b strings.Builder
	name := strings.TrimSpace(rec.Brand + " " + rec.Model)
	if rec.Year != 0 {
		fmt.Fprintf(&b, "The %d %s is a %s tractor", rec.Year, name, rec.Type)
	} else {
		fmt.Fprintf(&b, "The %s is a %s tractor", name, rec.Type)
	}

	e := rec.Engine
	var engine []string
	if e.Cylinders > 0 {
		engine = append(engine, fmt.Sprintf("%d-cylinder", e.Cylinders))
	}
	if e.Turbocharged {
		engine = append(engine, "turbocharged")
	}
	if e.FuelType != "" {
		engine = append(engine, e.FuelType)
	}
	if len(engine) > 0 || e.Manufacturer != "" {
		if len(engine) == 0 {
			engine = append(engine, e.Manufacturer)
		}
		fmt.Fprintf(&b, " powered by a %s engine", strings.Join(engine, " "))
	}
	switch {
	case e.PowerHP > 0 && e.PowerKW > 0:
		fmt.Fprintf(&b, " rated at %s hp (%s kW)", formatNumber(e.PowerHP), formatNumber(e.PowerKW))
	case e.PowerHP > 0:
		fmt.Fprintf(&b, " rated at %s hp", formatNumber(e.PowerHP))
	}
	b.WriteString(".")

	if t := rec.Transmission; t.Type != "" || t.Gears != "" {
		b.WriteString(" It uses a")
		if t.Gears != "" {
			b.WriteString(" " + t.Gears)
		}
		if t.Type != "" {
			b.WriteString(" " + t.Type)
		}
		b.WriteString(" transmission.")
	}
	if rec.PTOHP > 0 {
		fmt.Fprintf(&b, " PTO output is %s hp.", formatNumber(rec.PTOHP))
	}
	if rec.WeightKG > 0 {
		fmt.Fprintf(&b, " Operating weight is %s kg.", formatNumber(rec.WeightKG))
	}
	return b.String()
}

// Keywords builds the comma separated keyword list for a record.
func Keywords(rec *domain.Tractor) string {
	name := strings.TrimSpace(rec.Brand + " " + rec.Model)
	candidates := []string{
		rec.Brand,
		rec.Model,
		name,
		name + " specs",
		rec.Brand + " " + string(rec.Type) + " tractor",
		string(rec.Type) + " tractor",
	}
	if rec.Engine.PowerHP > 0 {
		candidates = append(candidates, formatNumber(rec.Engine.PowerHP)+" hp tractor")
	}
	if rec.Engine.FuelType != "" {
		candidates = append(candidates, rec.Engine.FuelType+" tractor")
	}
	if rec.Year != 0 {
		candidates = append(candidates, fmt.Sprintf("%d %s", rec.Year, name))
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return strings.Join(out, ", ")
}
