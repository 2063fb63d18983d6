package extract

import (
	"testing"

	"github.com/timmy/tractorhub/internal/domain"
)

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{
		"75":      75,
		"4,409":   4409,
		"55,9":    55.9,
		"1,234.5": 1234.5,
	}
	for in, want := range tests {
		got, ok := parseNumber(in)
		if !ok || got != want {
			t.Errorf("parseNumber(%q) = %v,%v want %v", in, got, ok, want)
		}
	}
}

func TestUnitParsers(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) (float64, bool)
		in    string
		want  float64
	}{
		{"weight prefers kg", ParseWeight, "5,512 lbs [2500 kg]", 2500},
		{"weight pounds", ParseWeight, "1000 lb", 454},
		{"weight tonnes", ParseWeight, "3.5 t", 3500},
		{"length cm", ParseLength, "82.7 inches [210 cm]", 2100},
		{"length inches", ParseLength, `48"`, 1219},
		{"length feet", ParseLength, "10 ft", 3048},
		{"length feet and inches", ParseLength, "7 ft 2 in", 2184},
		{"length feet and inches marks", ParseLength, `7' 2"`, 2184},
		{"volume litres", ParseVolume, "18.2 gal [68.9 L]", 68.9},
		{"volume gallons", ParseVolume, "5 gal", 18.9},
		{"flow gpm", ParseFlow, "10 gpm", 37.9},
		{"displacement cubic inches", ParseDisplacement, "207 ci", 3.39},
		{"displacement cc", ParseDisplacement, "1498 cc", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.parse(tt.in)
			if !ok || got != tt.want {
				t.Errorf("parse(%q) = %v,%v want %v", tt.in, got, ok, tt.want)
			}
		})
	}

	if _, ok := ParseWeight("2500"); ok {
		t.Error("unitless weight must be rejected")
	}
}

func TestParsePower(t *testing.T) {
	tests := []struct {
		in     string
		hp, kw float64
	}{
		{"75 hp [55.9 kW]", 75, 55.9},
		{"55.9 kW", 0, 55.9},
		{"100 PS", 99, 0},
		{"75", 75, 0},
	}
	for _, tt := range tests {
		hp, kw := ParsePower(tt.in)
		if hp != tt.hp || kw != tt.kw {
			t.Errorf("ParsePower(%q) = %v,%v want %v,%v", tt.in, hp, kw, tt.hp, tt.kw)
		}
	}
}

func TestFallback(t *testing.T) {
	b := testBounds()
	t.Run("skips pto figures", func(t *testing.T) {
		var rec = newRecord()
		Fallback(rec, "Rated PTO: 18 hp. The 3-cylinder diesel engine produces 24.5 hp.", b)
		if rec.Engine.PowerHP != 24.5 || rec.Engine.Cylinders != 3 {
			t.Errorf("engine = %+v", rec.Engine)
		}
	})
	t.Run("cyl abbreviation and kW", func(t *testing.T) {
		rec := newRecord()
		Fallback(rec, "4 cyl engine, 90 kW", b)
		if rec.Engine.Cylinders != 4 || rec.Engine.PowerKW != 90 {
			t.Errorf("engine = %+v", rec.Engine)
		}
	})
	t.Run("keeps existing values", func(t *testing.T) {
		rec := newRecord()
		rec.Engine.PowerHP = 50
		Fallback(rec, "80 hp", b)
		if rec.Engine.PowerHP != 50 {
			t.Errorf("PowerHP overwritten: %v", rec.Engine.PowerHP)
		}
	})
}

func newRecord() *domain.Tractor { return &domain.Tractor{} }
