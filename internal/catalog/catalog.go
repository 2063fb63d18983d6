// Package catalog persists the pipeline's JSON artifacts: tractor record
// sets, the image map and the news document.
package catalog

import (
	"sort"

	"github.com/timmy/tractorhub/internal/atomicfile"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/normalize"
)

// ImageMap maps a record key to its resolved image URL. A nil value records
// that resolution ran and found nothing.
type ImageMap map[string]*string

// Store reads and writes artifacts under the configured paths.
type Store struct {
	fs    *atomicfile.FS
	paths config.PathsConfig
}

// NewStore creates a store.
func NewStore(fs *atomicfile.FS, paths config.PathsConfig) *Store {
	return &Store{fs: fs, paths: paths}
}

// FS returns the underlying atomic filesystem.
func (s *Store) FS() *atomicfile.FS {
	return s.fs
}

// Paths returns the configured artifact paths.
func (s *Store) Paths() config.PathsConfig {
	return s.paths
}

func (s *Store) CatalogPath() string   { return s.paths.Resolve(s.paths.Catalog) }
func (s *Store) CuratedPath() string   { return s.paths.Resolve(s.paths.Curated) }
func (s *Store) ExtractedPath() string { return s.paths.Resolve(s.paths.Extracted) }
func (s *Store) ImagesPath() string    { return s.paths.Resolve(s.paths.ImageMap) }
func (s *Store) NewsPath() string      { return s.paths.Resolve(s.paths.News) }
func (s *Store) LinksPath() string     { return s.paths.Resolve(s.paths.Links) }

// LoadTractors reads a record set. A missing file is an empty set.
func (s *Store) LoadTractors(path string) ([]domain.Tractor, error) {
	var records []domain.Tractor
	if _, err := s.fs.ReadJSON(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveTractors writes records sorted by id.
func (s *Store) SaveTractors(path string, records []domain.Tractor) error {
	sorted := make([]domain.Tractor, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	if sorted == nil {
		sorted = []domain.Tractor{}
	}
	return s.fs.WriteJSON(path, sorted)
}

// LoadImages reads the image map. A missing file is an empty map.
func (s *Store) LoadImages() (ImageMap, error) {
	images := make(ImageMap)
	if _, err := s.fs.ReadJSON(s.ImagesPath(), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// SaveImages writes the image map. Keys come out sorted.
func (s *Store) SaveImages(images ImageMap) error {
	return s.fs.WriteJSON(s.ImagesPath(), images)
}

// LoadNews reads the news document, or nil when none exists yet.
func (s *Store) LoadNews() (*domain.NewsDocument, error) {
	var doc domain.NewsDocument
	found, err := s.fs.ReadJSON(s.NewsPath(), &doc)
	if err != nil || !found {
		return nil, err
	}
	return &doc, nil
}

// SaveNews writes the news document.
func (s *Store) SaveNews(doc domain.NewsDocument) error {
	if doc.Items == nil {
		doc.Items = []domain.NewsItem{}
	}
	return s.fs.WriteJSON(s.NewsPath(), doc)
}

// ImageKey is the image map key of a record.
func ImageKey(rec domain.Tractor) string {
	return normalize.ID(rec.Brand, rec.Model)
}

// ApplyImages copies resolved URLs onto records that have no image and
// returns how many changed.
func ApplyImages(records []domain.Tractor, images ImageMap) int {
	changed := 0
	for i := range records {
		if records[i].ImageURL != nil {
			continue
		}
		if u, ok := images[ImageKey(records[i])]; ok && u != nil {
			url := *u
			records[i].ImageURL = &url
			changed++
		}
	}
	return changed
}
