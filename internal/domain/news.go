package domain

import "time"

// NewsItem is one syndicated news entry.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	Excerpt     string    `json:"excerpt,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
}

// NewsDocument is the persisted news file.
type NewsDocument struct {
	FetchedAt time.Time  `json:"fetchedAt"`
	Items     []NewsItem `json:"items"`
}
