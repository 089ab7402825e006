package usecase

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pricelens/backend/internal/domain"
)

// BrandExtractor resolves the brand of a normalized name against a curated vocabulary
type BrandExtractor struct {
	brands  []string
	renames map[string]string
}

// NewBrandExtractor sorts a copy of brands by descending length so that
// "COCA COLA" is tried before "COCA". Equal lengths keep vocabulary order.
func NewBrandExtractor(brands []string, renames map[string]string) *BrandExtractor {
	sorted := make([]string, len(brands))
	copy(sorted, brands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	return &BrandExtractor{
		brands:  sorted,
		renames: renames,
	}
}

// Extract returns the canonical brand token, or domain.NoBrand when no entry is contained in name
func (e *BrandExtractor) Extract(name string) string {
	for _, brand := range e.brands {
		if strings.Contains(name, brand) {
			return e.canonical(brand)
		}
	}
	return domain.NoBrand
}

// Brands returns the vocabulary in matching order
func (e *BrandExtractor) Brands() []string {
	out := make([]string, len(e.brands))
	copy(out, e.brands)
	return out
}

// canonical applies the rename table, then folds hyphens and spaces to underscores
func (e *BrandExtractor) canonical(brand string) string {
	if renamed, ok := e.renames[brand]; ok {
		return renamed
	}
	return strings.NewReplacer("-", "_", " ", "_").Replace(brand)
}
