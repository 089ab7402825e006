package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/pricelens/backend/internal/domain"
)

// VolumeExtractor detects package ("4X0.5L") and single ("250ML") volumes in normalized names
type VolumeExtractor struct {
	units        map[string]float64
	packageRegex *regexp.Regexp
	singleRegex  *regexp.Regexp
}

// NewVolumeExtractor creates an extractor for the given unit-to-milliliter table
func NewVolumeExtractor(units map[string]float64) *VolumeExtractor {
	alt := unitAlternation(units)
	// The single pattern's leading group replaces a negative look-behind: the
	// amount must not continue a number or be the second half of a package.
	return &VolumeExtractor{
		units:        units,
		packageRegex: regexp.MustCompile(`(\d+)X(\d*\.?\d+)(` + alt + `)(?:[^\p{L}\p{N}_]|$)`),
		singleRegex:  regexp.MustCompile(`(?:^|[^\dX.])(\d*\.?\d+)(` + alt + `)(?:[^\p{L}\p{N}_]|$)`),
	}
}

// Extract returns the volume found in name. Package notation takes precedence.
func (e *VolumeExtractor) Extract(name string) domain.Volume {
	if m := e.packageRegex.FindStringSubmatch(name); m != nil {
		count, err := strconv.Atoi(m[1])
		if err == nil {
			if unitMl, ok := e.toMilliliters(m[2], m[3]); ok {
				return domain.Volume{
					Kind:           domain.VolumePackage,
					UnitCount:      count,
					UnitMl:         unitMl,
					TotalMl:        unitMl * count,
					Representation: fmt.Sprintf("PACK_%dX%dML", count, unitMl),
				}
			}
		}
	}

	if m := e.singleRegex.FindStringSubmatch(name); m != nil {
		if totalMl, ok := e.toMilliliters(m[1], m[2]); ok {
			return domain.Volume{
				Kind:           domain.VolumeSingle,
				UnitCount:      1,
				UnitMl:         totalMl,
				TotalMl:        totalMl,
				Representation: fmt.Sprintf("SINGLE_%dML", totalMl),
			}
		}
	}

	return domain.Volume{Kind: domain.VolumeNone}
}

// toMilliliters converts amount in unit to whole milliliters, rounding half away from zero
func (e *VolumeExtractor) toMilliliters(amount, unit string) (int, bool) {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, false
	}
	factor, ok := e.units[unit]
	if !ok {
		return 0, false
	}
	return int(math.Round(value * factor)), true
}
