package usecase

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
)

func single(ml int) domain.Volume {
	return domain.Volume{
		Kind:           domain.VolumeSingle,
		UnitCount:      1,
		UnitMl:         ml,
		TotalMl:        ml,
		Representation: fmt.Sprintf("SINGLE_%dML", ml),
	}
}

func testProduct(name, brand string, flavors []string, volume domain.Volume, price float64) domain.Product {
	return domain.Product{
		RawName:        name,
		NormalizedName: name,
		Price:          price,
		Brand:          brand,
		Flavors:        flavors,
		Volume:         volume,
		MatchKey:       BuildMatchKey(brand, flavors, volume),
	}
}

func TestNewMatcher(t *testing.T) {
	t.Run("uses provided threshold", func(t *testing.T) {
		assert.Equal(t, 0.05, NewMatcher(0.05).Threshold())
	})

	t.Run("falls back to default when zero", func(t *testing.T) {
		assert.Equal(t, DefaultPriceThreshold, NewMatcher(0).Threshold())
	})
}

func TestMatcher_Threshold(t *testing.T) {
	m := NewMatcher(DefaultPriceThreshold)
	a := []domain.Product{testProduct("HELL 250ML", "HELL", nil, single(250), 1.00)}

	t.Run("difference within noise is dropped", func(t *testing.T) {
		b := []domain.Product{testProduct("HELL 250ML", "HELL", nil, single(250), 1.005)}
		assert.Empty(t, m.Match(a, b))
	})

	t.Run("equal prices are dropped", func(t *testing.T) {
		b := []domain.Product{testProduct("HELL 250ML", "HELL", nil, single(250), 1.00)}
		assert.Empty(t, m.Match(a, b))
	})

	t.Run("difference above noise is kept", func(t *testing.T) {
		b := []domain.Product{testProduct("HELL 250ML", "HELL", nil, single(250), 1.02)}
		matches := m.Match(a, b)
		require.Len(t, matches, 1)
		assert.InDelta(t, -0.02, matches[0].Difference, 1e-9)
	})
}

func TestMatcher_SwapFlipsSign(t *testing.T) {
	m := NewMatcher(DefaultPriceThreshold)
	a := []domain.Product{testProduct("SHARK 250ML", "SHARK", nil, single(250), 1.50)}
	b := []domain.Product{testProduct("SHARK 250ML", "SHARK", nil, single(250), 1.20)}

	ab := m.Match(a, b)
	ba := m.Match(b, a)
	require.Len(t, ab, 1)
	require.Len(t, ba, 1)

	assert.InDelta(t, 0.30, ab[0].Difference, 1e-9)
	assert.InDelta(t, -0.30, ba[0].Difference, 1e-9)
	assert.InDelta(t, 25.0, ab[0].PercentDiff, 1e-9)
	assert.InDelta(t, -20.0, ba[0].PercentDiff, 1e-9)
	assert.Equal(t, ab[0].MatchKey, ba[0].MatchKey)
}

func TestMatcher_RanksByAbsolutePercent(t *testing.T) {
	m := NewMatcher(DefaultPriceThreshold)
	a := []domain.Product{
		testProduct("FIVE", "PEPSI", nil, single(330), 10.50),
		testProduct("TWENTY", "FANTA", nil, single(330), 12.00),
		testProduct("ONE", "SPRITE", nil, single(330), 10.10),
	}
	b := []domain.Product{
		testProduct("ONE", "SPRITE", nil, single(330), 10.00),
		testProduct("FIVE", "PEPSI", nil, single(330), 10.00),
		testProduct("TWENTY", "FANTA", nil, single(330), 10.00),
	}

	matches := m.Match(a, b)
	require.Len(t, matches, 3)
	assert.Equal(t, "FANTA", matches[0].Brand)
	assert.Equal(t, "PEPSI", matches[1].Brand)
	assert.Equal(t, "SPRITE", matches[2].Brand)
	assert.InDelta(t, 20.0, matches[0].PercentDiff, 1e-9)
	assert.InDelta(t, 5.0, matches[1].PercentDiff, 1e-9)
	assert.InDelta(t, 1.0, matches[2].PercentDiff, 1e-9)
}

func TestMatcher_TiesKeepDiscoveryOrder(t *testing.T) {
	m := NewMatcher(DefaultPriceThreshold)
	a := []domain.Product{
		testProduct("FIRST", "BURN", nil, single(250), 2.00),
		testProduct("SECOND", "NOCCO", nil, single(330), 2.00),
		testProduct("THIRD", "ZALA", nil, single(500), 0.50),
	}
	b := []domain.Product{
		testProduct("THIRD", "ZALA", nil, single(500), 1.00),
		testProduct("SECOND", "NOCCO", nil, single(330), 1.00),
		testProduct("FIRST", "BURN", nil, single(250), 1.00),
	}

	matches := m.Match(a, b)
	require.Len(t, matches, 3)
	assert.Equal(t, "BURN", matches[0].Brand)
	assert.Equal(t, "NOCCO", matches[1].Brand)
	assert.Equal(t, "ZALA", matches[2].Brand)
}

func TestMatcher_KeyCollisionIsRejected(t *testing.T) {
	m := NewMatcher(DefaultPriceThreshold)
	a := []domain.Product{testProduct("MIX A", "DANA", []string{"A", "B", "C", "D"}, single(500), 1.00)}
	b := []domain.Product{testProduct("MIX B", "DANA", []string{"A", "B", "C", "E"}, single(500), 2.00)}

	require.Equal(t, a[0].MatchKey, b[0].MatchKey)
	assert.Empty(t, m.Match(a, b))
}

func TestMatcher_StrictVolumeCheck(t *testing.T) {
	m := NewMatcher(DefaultPriceThreshold)
	pa := testProduct("X", "HELL", nil, single(250), 1.00)
	pb := testProduct("X", "HELL", nil, single(250), 2.00)
	pb.Volume.TotalMl = 500

	assert.Empty(t, m.Match([]domain.Product{pa}, []domain.Product{pb}))

	pc := testProduct("X", "HELL", nil, single(250), 2.00)
	pc.Volume.Kind = domain.VolumePackage
	assert.Empty(t, m.Match([]domain.Product{pa}, []domain.Product{pc}))
}

func TestMatcher_CrossProductOfBuckets(t *testing.T) {
	m := NewMatcher(DefaultPriceThreshold)
	a := []domain.Product{
		testProduct("RED BULL 250ML", "RED_BULL", nil, single(250), 1.19),
		testProduct("RED BULL 0.25L", "RED_BULL", nil, single(250), 1.29),
	}
	b := []domain.Product{testProduct("RED BULL 250 ML", "RED_BULL", nil, single(250), 1.39)}

	matches := m.Match(a, b)
	require.Len(t, matches, 2)
	for _, match := range matches {
		assert.Equal(t, "RED BULL 250 ML", match.ProductB.RawName)
		assert.Less(t, match.Difference, 0.0)
	}
	assert.Greater(t, math.Abs(matches[0].PercentDiff), math.Abs(matches[1].PercentDiff))
}

func TestMatcher_NoSharedKeys(t *testing.T) {
	m := NewMatcher(DefaultPriceThreshold)
	a := []domain.Product{testProduct("A", "HELL", nil, single(250), 1)}
	b := []domain.Product{testProduct("B", "HELL", nil, single(500), 2)}

	assert.Empty(t, m.Match(a, b))
	assert.Empty(t, m.Match(nil, nil))
}
