// Package vocabulary holds the curated tables driving product-name matching:
// volume units, boilerplate patterns, brands and flavors.
//
// Tables are plain data loaded from YAML so a different market can ship its own
// file without touching the matching code. A loaded Vocabulary is treated as
// immutable.
package vocabulary

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// DefaultUnits is the unit-to-milliliter table used when a file defines none
var DefaultUnits = map[string]float64{
	"ML": 1,
	"CL": 10,
	"DL": 100,
	"L":  1000,
}

var unitNameRegex = regexp.MustCompile(`^[A-Z]+$`)

// Vocabulary is the set of curated tables
type Vocabulary struct {
	Units         map[string]float64 `yaml:"units" json:"units"`
	Boilerplate   []string           `yaml:"boilerplate" json:"boilerplate"`
	Brands        []string           `yaml:"brands" json:"brands"`
	BrandRenames  map[string]string  `yaml:"brand_renames" json:"brandRenames"`
	Flavors       []string           `yaml:"flavors" json:"flavors"`
	FlavorAliases map[string]string  `yaml:"flavor_aliases" json:"flavorAliases"`
}

// Default returns the embedded vocabulary
func Default() (*Vocabulary, error) {
	return Parse(defaultYAML)
}

// Load reads the vocabulary at path, or the embedded default when path is empty
func Load(path string) (*Vocabulary, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile loads and parses a YAML vocabulary file from the given path.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Vocabulary, canonicalizes entries and validates the result.
func Parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary

	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary YAML: %w", err)
	}

	applyDefaults(&v)

	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary: %w", err)
	}

	return &v, nil
}

// applyDefaults fills the unit table and brings every entry into the same
// canonical form the text normalizer produces (NFC, upper case, trimmed).
func applyDefaults(v *Vocabulary) {
	if len(v.Units) == 0 {
		v.Units = make(map[string]float64, len(DefaultUnits))
		for unit, factor := range DefaultUnits {
			v.Units[unit] = factor
		}
	} else {
		units := make(map[string]float64, len(v.Units))
		for unit, factor := range v.Units {
			units[canonical(unit)] = factor
		}
		v.Units = units
	}

	v.Brands = canonicalList(v.Brands)
	v.Flavors = canonicalList(v.Flavors)
	v.BrandRenames = canonicalMap(v.BrandRenames)
	v.FlavorAliases = canonicalMap(v.FlavorAliases)
}

// Validate checks that every table is usable by the extractors
func (v *Vocabulary) Validate() error {
	if len(v.Units) == 0 {
		return fmt.Errorf("at least one volume unit is required")
	}
	for unit, factor := range v.Units {
		if !unitNameRegex.MatchString(unit) {
			return fmt.Errorf("unit %q must consist of letters only", unit)
		}
		if factor <= 0 {
			return fmt.Errorf("unit %q must have a positive milliliter factor, got %v", unit, factor)
		}
	}

	for i, pattern := range v.Boilerplate {
		if pattern == "" {
			return fmt.Errorf("boilerplate pattern %d is empty", i)
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("boilerplate pattern %d (%q) does not compile: %w", i, pattern, err)
		}
	}

	for i, brand := range v.Brands {
		if brand == "" {
			return fmt.Errorf("brand %d is empty", i)
		}
	}
	for i, flavor := range v.Flavors {
		if flavor == "" {
			return fmt.Errorf("flavor %d is empty", i)
		}
	}

	return nil
}

func canonical(s string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(s)))
}

func canonicalList(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, canonical(e))
	}
	return out
}

func canonicalMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[canonical(k)] = canonical(val)
	}
	return out
}
