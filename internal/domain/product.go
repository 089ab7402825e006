package domain

import (
	"encoding/json"
	"fmt"
)

// Sentinels used in match keys and brand extraction
const (
	NoBrand  = "NOBRAND"
	NoFlavor = "NOFLAVOR"
	NoVolume = "NOVOLUME"
)

// RawRow is a single {name, price} pair handed over by a price-list source.
// Price may be a string or any numeric type.
type RawRow struct {
	Name  string `json:"name"`
	Price any    `json:"price"`
}

// VolumeKind tells whether a product name encodes no volume, a single unit or a multi-unit package
type VolumeKind int

const (
	VolumeNone VolumeKind = iota
	VolumeSingle
	VolumePackage
)

func (k VolumeKind) String() string {
	switch k {
	case VolumeSingle:
		return "single"
	case VolumePackage:
		return "package"
	default:
		return "none"
	}
}

// MarshalJSON encodes the kind as its lowercase name
func (k VolumeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes the lowercase kind name
func (k *VolumeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "none", "":
		*k = VolumeNone
	case "single":
		*k = VolumeSingle
	case "package":
		*k = VolumePackage
	default:
		return fmt.Errorf("unknown volume kind %q", s)
	}
	return nil
}

// Volume is the volume detected in a product name.
// For packages UnitMl is the volume of one unit and TotalMl the whole bundle.
type Volume struct {
	Kind           VolumeKind `json:"kind"`
	UnitCount      int        `json:"unitCount,omitempty"`
	UnitMl         int        `json:"unitMl,omitempty"`
	TotalMl        int        `json:"totalMl,omitempty"`
	Representation string     `json:"representation,omitempty"`
}

// IsPackage reports whether the volume describes a multi-unit bundle
func (v Volume) IsPackage() bool {
	return v.Kind == VolumePackage
}

// Key returns the representation used in match keys
func (v Volume) Key() string {
	if v.Kind == VolumeNone || v.Representation == "" {
		return NoVolume
	}
	return v.Representation
}

// Product is a price-list row after normalization and attribute extraction.
// Products are built once per comparison run and never mutated.
type Product struct {
	RawName        string   `json:"rawName"`
	NormalizedName string   `json:"normalizedName"`
	Price          float64  `json:"price"`
	Brand          string   `json:"brand"`
	Flavors        []string `json:"flavors"`
	Volume         Volume   `json:"volume"`
	MatchKey       string   `json:"matchKey"`
}
