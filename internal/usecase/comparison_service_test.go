package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
)

// failingCache is a CacheRepository whose writes always fail
type failingCache struct {
	*cache.MemoryCache
}

func (f failingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("cache unavailable")
}

func newTestComparisonService(t *testing.T) (*ComparisonService, *cache.MemoryCache) {
	t.Helper()
	memCache := cache.NewMemoryCache()
	t.Cleanup(memCache.Close)

	svc := NewComparisonService(defaultVocabulary(t), memCache, ComparisonConfig{}, zerolog.Nop())
	return svc, memCache
}

func sampleRequest() *domain.ComparisonRequest {
	return &domain.ComparisonRequest{
		LabelA: "Spar",
		LabelB: "Mercator",
		RowsA: []domain.RawRow{
			{Name: "Red Bull Energy Drink 250 ml", Price: "1,19"},
			{Name: "Monster Mango Loco 4 x 0,5 l", Price: "6,49"},
			{Name: "Hell Energy", Price: "0,99"},
			{Name: "", Price: "1,00"},
		},
		RowsB: []domain.RawRow{
			{Name: "RED BULL ENERGY DRINK 250ML", Price: 1.39},
			{Name: "MONSTER MANGO LOCO 4X0,5L", Price: 6.49},
			{Name: "Fanta Orange 1,5 l", Price: "1,59"},
		},
	}
}

func TestComparisonService_Compare(t *testing.T) {
	svc, _ := newTestComparisonService(t)

	report, err := svc.Compare(context.Background(), sampleRequest())
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.False(t, report.CreatedAt.IsZero())
	assert.Equal(t, DefaultPriceThreshold, report.Threshold)

	assert.Equal(t, domain.ListStats{Label: "Spar", Rows: 4, Products: 3, Skipped: 1, Packages: 1, Singles: 1}, report.SourceA)
	assert.Equal(t, domain.ListStats{Label: "Mercator", Rows: 3, Products: 3, Skipped: 0, Packages: 1, Singles: 2}, report.SourceB)

	require.Len(t, report.Matches, 1)
	assert.Equal(t, "RED_BULL", report.Matches[0].Brand)
	assert.InDelta(t, -0.20, report.Matches[0].Difference, 1e-9)
}

func TestComparisonService_DefaultLabels(t *testing.T) {
	svc, _ := newTestComparisonService(t)

	report, err := svc.Compare(context.Background(), &domain.ComparisonRequest{})
	require.NoError(t, err)
	assert.Equal(t, "A", report.SourceA.Label)
	assert.Equal(t, "B", report.SourceB.Label)
	assert.NotNil(t, report.Matches)
	assert.Empty(t, report.Matches)
}

func TestComparisonService_NilRequest(t *testing.T) {
	svc, _ := newTestComparisonService(t)

	_, err := svc.Compare(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestComparisonService_CancelledContext(t *testing.T) {
	svc, memCache := newTestComparisonService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Compare(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, memCache.Size())
}

func TestComparisonService_GetReport(t *testing.T) {
	svc, _ := newTestComparisonService(t)
	ctx := context.Background()

	report, err := svc.Compare(ctx, sampleRequest())
	require.NoError(t, err)

	t.Run("returns stored report", func(t *testing.T) {
		got, err := svc.GetReport(ctx, report.RunID)
		require.NoError(t, err)
		assert.Equal(t, report.RunID, got.RunID)
		assert.Equal(t, report.SourceA, got.SourceA)
		require.Len(t, got.Matches, 1)
		assert.Equal(t, report.Matches[0].MatchKey, got.Matches[0].MatchKey)
		assert.Equal(t, domain.VolumeSingle, got.Matches[0].Volume.Kind)
	})

	t.Run("unknown run id", func(t *testing.T) {
		_, err := svc.GetReport(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrReportNotFound)
	})

	t.Run("malformed run id", func(t *testing.T) {
		_, err := svc.GetReport(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})
}

func TestComparisonService_CacheFailureStillReturnsReport(t *testing.T) {
	memCache := cache.NewMemoryCache()
	t.Cleanup(memCache.Close)
	svc := NewComparisonService(defaultVocabulary(t), failingCache{memCache}, ComparisonConfig{}, zerolog.Nop())

	report, err := svc.Compare(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Len(t, report.Matches, 1)

	_, err = svc.GetReport(context.Background(), report.RunID)
	assert.ErrorIs(t, err, domain.ErrReportNotFound)
}

func TestComparisonService_Threshold(t *testing.T) {
	memCache := cache.NewMemoryCache()
	t.Cleanup(memCache.Close)
	svc := NewComparisonService(defaultVocabulary(t), memCache, ComparisonConfig{PriceThreshold: 0.5}, zerolog.Nop())

	report, err := svc.Compare(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.5, report.Threshold)
	assert.Empty(t, report.Matches)
}

func TestComparisonService_Explain(t *testing.T) {
	svc, _ := newTestComparisonService(t)

	product, err := svc.Explain("Fanta Orange 1,5 l")
	require.NoError(t, err)
	assert.Equal(t, "FANTA", product.Brand)
	assert.Equal(t, "FANTA_FANTA_FANTA_ORANGE_POMARANCA_SINGLE_1500ML", product.MatchKey)

	_, err = svc.Explain("  ")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}
