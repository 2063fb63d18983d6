package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/timmy/tractorhub/internal/brand"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/normalize"
)

// MergeService builds the catalog from curated and extracted records.
type MergeService struct {
	env        *Env
	brands     *brand.Resolver
	normalizer *normalize.Normalizer
}

// NewMergeService creates a merge service sharing the brand resolver.
func NewMergeService(env *Env, brands *brand.Resolver) *MergeService {
	return &MergeService{env: env, brands: brands, normalizer: normalize.NewNormalizer(brands)}
}

// Run merges curated and extracted records into the catalog. Image and
// price fields already present in the previous catalog are carried over to
// records that lack them, so enrichment survives a re-merge.
func (s *MergeService) Run(ctx context.Context) (normalize.MergeStats, error) {
	ctx, run := s.env.Runs.Start(ctx, domain.JobMerge, "")
	start := s.env.now()

	stats, err := s.merge(ctx)
	s.env.Runs.Finish(ctx, run, countStats(domain.JobMerge, start, s.env.now(), stats.Curated+stats.Extracted, stats.Total), err)
	return stats, err
}

func (s *MergeService) merge(ctx context.Context) (normalize.MergeStats, error) {
	store := s.env.Store
	curated, err := store.LoadTractors(store.CuratedPath())
	if err != nil {
		return normalize.MergeStats{}, fmt.Errorf("load curated records: %w", err)
	}
	extracted, err := store.LoadTractors(store.ExtractedPath())
	if err != nil {
		return normalize.MergeStats{}, fmt.Errorf("load extracted records: %w", err)
	}
	previous, err := store.LoadTractors(store.CatalogPath())
	if err != nil {
		return normalize.MergeStats{}, fmt.Errorf("load catalog: %w", err)
	}

	for i := range curated {
		if curated[i].ID == "" {
			s.normalizer.Normalize(ctx, &curated[i])
		}
	}

	merged, stats := normalize.Merge(curated, extracted)
	carried := CarryEnrichment(merged, previous)

	if err := store.SaveTractors(store.CatalogPath(), merged); err != nil {
		return stats, fmt.Errorf("write catalog: %w", err)
	}

	logger.With(logger.Fields{
		"curated":            stats.Curated,
		"extracted":          stats.Extracted,
		"added":              stats.Added,
		"dropped_collisions": stats.DroppedCollisions,
		"dropped_duplicates": stats.DroppedDuplicates,
		"carried":            carried,
		logger.FieldCount:    stats.Total,
	}).Info(ctx, "Catalog merged")
	s.reportUnknownBrands(ctx, merged)

	s.env.publish(ctx, domain.JobMerge, store.CatalogPath())
	return stats, nil
}

// reportUnknownBrands logs every brand the resolver could not map together
// with its nearest known brand.
func (s *MergeService) reportUnknownBrands(ctx context.Context, records []domain.Tractor) {
	for _, rec := range records {
		if _, known := s.brands.Canonical(rec.Brand); !known {
			s.brands.Resolve(rec.Brand)
		}
	}
	unknown := s.brands.Unknown()
	names := make([]string, 0, len(unknown))
	for name := range unknown {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		logger.FromContext(ctx).WithFields(logger.Fields{
			"brand":      name,
			"suggestion": unknown[name],
		}).Warn("Unknown brand, add an alias if this is a spelling variant")
	}
}

// CarryEnrichment copies image and price fields from previous onto records
// with the same id that lack them. It returns the number of records changed.
func CarryEnrichment(records, previous []domain.Tractor) int {
	byID := make(map[string]*domain.Tractor, len(previous))
	for i := range previous {
		byID[previous[i].ID] = &previous[i]
	}

	changed := 0
	for i := range records {
		old, ok := byID[records[i].ID]
		if !ok {
			continue
		}
		touched := false
		if records[i].ImageURL == nil && old.ImageURL != nil {
			records[i].ImageURL = old.ImageURL
			touched = true
		}
		if records[i].PriceRange == nil && old.PriceRange != nil {
			records[i].PriceRange = old.PriceRange
			touched = true
		}
		if touched {
			changed++
		}
	}
	return changed
}
