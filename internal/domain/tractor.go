package domain

// TractorType is the catalog category of a tractor.
type TractorType string

const (
	TractorTypeFarm       TractorType = "farm"
	TractorTypeLawn       TractorType = "lawn"
	TractorTypeIndustrial TractorType = "industrial"
)

// ParseTractorType maps free text to a TractorType, defaulting to farm.
func ParseTractorType(s string) TractorType {
	switch TractorType(s) {
	case TractorTypeLawn, TractorTypeIndustrial:
		return TractorType(s)
	}
	return TractorTypeFarm
}

// TypeForCategory maps a listing category path segment to a TractorType.
func TypeForCategory(category string) TractorType {
	switch category {
	case "lawn-tractors", "lawn", "garden-tractors":
		return TractorTypeLawn
	case "industrial-tractors", "industrial", "construction-tractors":
		return TractorTypeIndustrial
	}
	return TractorTypeFarm
}

// Tractor is one catalog record.
type Tractor struct {
	ID              string          `json:"id"`
	Slug            string          `json:"slug"`
	Brand           string          `json:"brand"`
	Model           string          `json:"model"`
	Type            TractorType     `json:"type"`
	Year            int             `json:"year,omitempty"`
	Engine          Engine          `json:"engine"`
	Transmission    Transmission    `json:"transmission"`
	Dimensions      *Dimensions     `json:"dimensions,omitempty"`
	WeightKG        float64         `json:"weightKG,omitempty"`
	HydraulicSystem HydraulicSystem `json:"hydraulicSystem"`
	PTOHP           float64         `json:"ptoHP,omitempty"`
	PTORPM          string          `json:"ptoRPM,omitempty"`
	Capacities      *Capacities     `json:"capacities,omitempty"`
	Documentation   []DocumentLink  `json:"documentation,omitempty"`
	Description     string          `json:"description"`
	MetaKeywords    string          `json:"metaKeywords"`
	ImageURL        *string         `json:"imageUrl"`
	PriceRange      *PriceRange     `json:"priceRange"`
	SourceURL       string          `json:"sourceUrl,omitempty"`
}

type Engine struct {
	Manufacturer  string  `json:"manufacturer,omitempty"`
	Cylinders     int     `json:"cylinders,omitempty"`
	PowerHP       float64 `json:"powerHP,omitempty"`
	PowerKW       float64 `json:"powerKW,omitempty"`
	DisplacementL float64 `json:"displacementL,omitempty"`
	FuelType      string  `json:"fuelType,omitempty"`
	Cooling       string  `json:"cooling,omitempty"`
	Turbocharged  bool    `json:"turbocharged,omitempty"`
}

type Transmission struct {
	Type        string `json:"type,omitempty"`
	Gears       string `json:"gears,omitempty"`
	Description string `json:"description,omitempty"`
}

// Dimensions are in millimetres.
type Dimensions struct {
	WheelbaseMM float64 `json:"wheelbaseMM,omitempty"`
	LengthMM    float64 `json:"lengthMM,omitempty"`
	WidthMM     float64 `json:"widthMM,omitempty"`
	HeightMM    float64 `json:"heightMM,omitempty"`
}

// IsZero reports whether no dimension is set.
func (d *Dimensions) IsZero() bool {
	return d == nil || (d.WheelbaseMM == 0 && d.LengthMM == 0 && d.WidthMM == 0 && d.HeightMM == 0)
}

type HydraulicSystem struct {
	Type        string  `json:"type,omitempty"`
	PumpFlowLPM float64 `json:"pumpFlowLPM,omitempty"`
}

// Capacities are in litres.
type Capacities struct {
	FuelL      float64 `json:"fuelL,omitempty"`
	HydraulicL float64 `json:"hydraulicL,omitempty"`
}

// IsZero reports whether no capacity is set.
func (c *Capacities) IsZero() bool {
	return c == nil || (c.FuelL == 0 && c.HydraulicL == 0)
}

type DocumentLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// PriceRange is an estimated or supplied price band in whole currency units.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
