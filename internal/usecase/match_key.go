package usecase

import (
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// maxKeyFlavors is how many sorted flavor tokens make it into a match key
const maxKeyFlavors = 3

// BuildMatchKey combines brand, flavors and volume into the bucketing key
// "<brand>_<flavorKey>_<volumeKey>".
//
// The key only narrows the candidates. Flavors beyond the third are dropped, so
// two different products can share a key and the matcher re-checks every pair.
func BuildMatchKey(brand string, flavors []string, volume domain.Volume) string {
	flavorKey := domain.NoFlavor
	if len(flavors) > 0 {
		n := min(len(flavors), maxKeyFlavors)
		flavorKey = strings.Join(flavors[:n], "_")
	}
	return brand + "_" + flavorKey + "_" + volume.Key()
}
