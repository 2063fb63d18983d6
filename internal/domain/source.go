package domain

import "time"

// DetailLink is one canonical detail page found by discovery.
// It is also the line format of the links manifest.
type DetailLink struct {
	URL          string      `json:"url"`
	Category     string      `json:"category"`
	Type         TractorType `json:"type"`
	BrandHint    string      `json:"brand_hint,omitempty"`
	ListingURL   string      `json:"listing_url,omitempty"`
	DiscoveredAt time.Time   `json:"discovered_at"`
}

// Key returns the work-list key for the link.
func (l DetailLink) Key() string {
	return l.URL
}
