package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/vocabulary"
)

// reportKeyPrefix namespaces reports in the shared cache
const reportKeyPrefix = "report:"

// ComparisonConfig holds configuration for the comparison service
type ComparisonConfig struct {
	PriceThreshold float64
	ReportTTL      time.Duration
	Timeout        time.Duration
}

// ComparisonService runs comparisons of two price lists and keeps the reports for a while
type ComparisonService struct {
	vocab     *vocabulary.Vocabulary
	builder   *ProductBuilder
	matcher   *Matcher
	cache     domain.CacheRepository
	reportTTL time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewComparisonService creates a comparison service with dependencies
func NewComparisonService(
	vocab *vocabulary.Vocabulary,
	cache domain.CacheRepository,
	config ComparisonConfig,
	logger zerolog.Logger,
) *ComparisonService {
	reportTTL := config.ReportTTL
	if reportTTL <= 0 {
		reportTTL = time.Hour
	}

	return &ComparisonService{
		vocab:     vocab,
		builder:   NewProductBuilder(vocab),
		matcher:   NewMatcher(config.PriceThreshold),
		cache:     cache,
		reportTTL: reportTTL,
		timeout:   config.Timeout,
		logger:    logger.With().Str("component", "comparison-service").Logger(),
		now:       time.Now,
	}
}

// Compare builds both product lists, matches them and stores the report.
// The work runs in its own goroutine; when ctx ends first the result is abandoned
// and ctx.Err() is returned.
func (s *ComparisonService) Compare(ctx context.Context, request *domain.ComparisonRequest) (*domain.Report, error) {
	if request == nil {
		return nil, domain.ErrInvalidRequest
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan *domain.Report, 1)
	go func() {
		done <- s.run(request)
	}()

	var report *domain.Report
	select {
	case <-ctx.Done():
		s.logger.Warn().Err(ctx.Err()).Msg("comparison abandoned")
		return nil, ctx.Err()
	case report = <-done:
	}

	report.RunID = uuid.NewString()
	report.CreatedAt = s.now().UTC()

	if err := s.storeReport(ctx, report); err != nil {
		// The caller still gets the report; only a later fetch by ID will miss.
		s.logger.Warn().Err(err).Str("run_id", report.RunID).Msg("failed to cache report")
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Int("products_a", report.SourceA.Products).
		Int("products_b", report.SourceB.Products).
		Int("matches", len(report.Matches)).
		Msg("comparison finished")

	return report, nil
}

// run is the synchronous core of a comparison
func (s *ComparisonService) run(request *domain.ComparisonRequest) *domain.Report {
	productsA, skippedA := s.builder.BuildAll(request.RowsA)
	productsB, skippedB := s.builder.BuildAll(request.RowsB)

	s.logger.Debug().
		Int("rows_a", len(request.RowsA)).
		Int("skipped_a", skippedA).
		Int("rows_b", len(request.RowsB)).
		Int("skipped_b", skippedB).
		Msg("product lists built")

	matches := s.matcher.Match(productsA, productsB)
	if matches == nil {
		matches = []domain.Match{}
	}

	return &domain.Report{
		Threshold: s.matcher.Threshold(),
		SourceA:   listStats(labelOr(request.LabelA, "A"), len(request.RowsA), productsA, skippedA),
		SourceB:   listStats(labelOr(request.LabelB, "B"), len(request.RowsB), productsB, skippedB),
		Matches:   matches,
	}
}

// GetReport returns a previously stored report
func (s *ComparisonService) GetReport(ctx context.Context, runID string) (*domain.Report, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("%w: malformed run id %q", domain.ErrInvalidRequest, runID)
	}

	data, err := s.cache.Get(ctx, reportKeyPrefix+runID)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to read report %s: %w", runID, err)
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", runID, err)
	}
	return &report, nil
}

// Explain returns the attributes extracted from a bare product name
func (s *ComparisonService) Explain(name string) (*domain.Product, error) {
	product, err := s.builder.Describe(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return &product, nil
}

// Vocabulary returns the tables the service matches with
func (s *ComparisonService) Vocabulary() *vocabulary.Vocabulary {
	return s.vocab
}

func (s *ComparisonService) storeReport(ctx context.Context, report *domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return s.cache.Set(ctx, reportKeyPrefix+report.RunID, data, s.reportTTL)
}

// listStats counts products per volume kind. Products without a detected volume
// are neither packages nor singles.
func listStats(label string, rows int, products []domain.Product, skipped int) domain.ListStats {
	stats := domain.ListStats{
		Label:    label,
		Rows:     rows,
		Products: len(products),
		Skipped:  skipped,
	}
	for _, p := range products {
		switch p.Volume.Kind {
		case domain.VolumePackage:
			stats.Packages++
		case domain.VolumeSingle:
			stats.Singles++
		}
	}
	return stats
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}
