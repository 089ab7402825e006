package usecase

import (
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/vocabulary"
)

// ProductBuilder turns raw rows into products: normalize the name, parse the
// price, extract brand, flavors and volume, then derive the match key.
type ProductBuilder struct {
	normalizer *TextNormalizer
	volumes    *VolumeExtractor
	flavors    *FlavorExtractor
	brands     *BrandExtractor
}

// NewProductBuilder wires the normalizer and extractors for the given vocabulary
func NewProductBuilder(vocab *vocabulary.Vocabulary) *ProductBuilder {
	return &ProductBuilder{
		normalizer: NewTextNormalizer(vocab),
		volumes:    NewVolumeExtractor(vocab.Units),
		flavors:    NewFlavorExtractor(vocab.Flavors, vocab.FlavorAliases),
		brands:     NewBrandExtractor(vocab.Brands, vocab.BrandRenames),
	}
}

// Build constructs a product from one raw row.
// Returns ErrEmptyName, ErrInvalidPrice or ErrNonPositivePrice for rows that cannot take part in a comparison.
func (b *ProductBuilder) Build(row domain.RawRow) (domain.Product, error) {
	product, err := b.Describe(row.Name)
	if err != nil {
		return domain.Product{}, err
	}

	price, err := ParsePrice(row.Price)
	if err != nil {
		return domain.Product{}, err
	}
	if price <= 0 {
		return domain.Product{}, domain.ErrNonPositivePrice
	}

	product.Price = price
	return product, nil
}

// BuildAll builds every row and silently drops the ones that fail.
// skipped is the number of dropped rows.
func (b *ProductBuilder) BuildAll(rows []domain.RawRow) (products []domain.Product, skipped int) {
	products = make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		product, err := b.Build(row)
		if err != nil {
			skipped++
			continue
		}
		products = append(products, product)
	}
	return products, skipped
}

// Describe extracts the attributes of a bare name without a price
func (b *ProductBuilder) Describe(name string) (domain.Product, error) {
	normalized := b.normalizer.Normalize(name)
	if normalized == "" {
		return domain.Product{}, domain.ErrEmptyName
	}

	brand := b.brands.Extract(normalized)
	flavors := b.flavors.Extract(normalized)
	volume := b.volumes.Extract(normalized)

	return domain.Product{
		RawName:        name,
		NormalizedName: normalized,
		Brand:          brand,
		Flavors:        flavors,
		Volume:         volume,
		MatchKey:       BuildMatchKey(brand, flavors, volume),
	}, nil
}

// Normalizer exposes the text normalizer used by the builder
func (b *ProductBuilder) Normalizer() *TextNormalizer {
	return b.normalizer
}
