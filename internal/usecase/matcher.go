package usecase

import (
	"math"
	"slices"
	"sort"

	"github.com/pricelens/backend/internal/domain"
)

// DefaultPriceThreshold is the smallest absolute price difference worth reporting
const DefaultPriceThreshold = 0.01

// Matcher pairs equivalent products of two lists and ranks their price differences
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. A non-positive threshold falls back to DefaultPriceThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultPriceThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the noise threshold in use
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match compares list a against list b.
//
// Products are bucketed by match key; for every key present in both lists
// each pair of the two buckets is checked attribute by attribute. Pairs whose
// prices differ by more than the threshold are returned, sorted by descending
// absolute percent difference (ties keep discovery order). Difference is
// priceA - priceB and PercentDiff is relative to priceB.
func (m *Matcher) Match(a, b []domain.Product) []domain.Match {
	keysA, bucketsA := bucketByKey(a)
	_, bucketsB := bucketByKey(b)

	var matches []domain.Match
	for _, key := range keysA {
		candidatesB, ok := bucketsB[key]
		if !ok {
			continue
		}
		for _, pa := range bucketsA[key] {
			for _, pb := range candidatesB {
				if !sameProduct(pa, pb) {
					continue
				}
				diff := pa.Price - pb.Price
				if math.Abs(diff) <= m.threshold {
					continue
				}
				matches = append(matches, domain.Match{
					MatchKey:    key,
					Brand:       pa.Brand,
					Flavors:     pa.Flavors,
					Volume:      pa.Volume,
					ProductA:    pa,
					ProductB:    pb,
					Difference:  diff,
					PercentDiff: diff / pb.Price * 100,
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return math.Abs(matches[i].PercentDiff) > math.Abs(matches[j].PercentDiff)
	})
	return matches
}

// bucketByKey groups products by match key and returns the keys in first-appearance order
func bucketByKey(products []domain.Product) ([]string, map[string][]domain.Product) {
	var keys []string
	buckets := make(map[string][]domain.Product)
	for _, p := range products {
		if _, ok := buckets[p.MatchKey]; !ok {
			keys = append(keys, p.MatchKey)
		}
		buckets[p.MatchKey] = append(buckets[p.MatchKey], p)
	}
	return keys, buckets
}

// sameProduct is the strict check behind a shared key: brand, full flavor list,
// total volume and package flag must all agree.
func sameProduct(a, b domain.Product) bool {
	return a.Brand == b.Brand &&
		slices.Equal(a.Flavors, b.Flavors) &&
		a.Volume.TotalMl == b.Volume.TotalMl &&
		a.Volume.IsPackage() == b.Volume.IsPackage()
}
