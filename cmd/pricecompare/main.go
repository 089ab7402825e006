// Command pricecompare reconciles two retail price lists and reports the
// equivalent products whose prices differ.
//
// Usage:
//
//	pricecompare -a spar.xlsx -b https://example.com/mercator.csv -label-a Spar -label-b Mercator
//
// Locations may be local CSV/XLSX paths, http(s):// URLs, s3://bucket/key,
// sqlite://file.db?table=t or postgres://...?table=t.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricelens/backend/config"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/infrastructure/source"
	"github.com/pricelens/backend/internal/usecase"
	"github.com/pricelens/backend/internal/vocabulary"
)

var errUsage = errors.New("invalid usage")

type options struct {
	locationA  string
	locationB  string
	labelA     string
	labelB     string
	columnsA   domain.Columns
	columnsB   domain.Columns
	vocabulary string
	threshold  float64
	outputJSON string
	top        int
	timeout    time.Duration
	s3Region   string
	s3Bucket   string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("pricecompare", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.locationA, "a", "", "Location of price list A")
	fs.StringVar(&opts.locationB, "b", "", "Location of price list B")
	fs.StringVar(&opts.labelA, "label-a", "A", "Display label of list A")
	fs.StringVar(&opts.labelB, "label-b", "B", "Display label of list B")
	fs.StringVar(&opts.columnsA.Name, "name-a", "name", "Product name column of list A")
	fs.StringVar(&opts.columnsA.Price, "price-a", "price", "Price column of list A")
	fs.StringVar(&opts.columnsB.Name, "name-b", "name", "Product name column of list B")
	fs.StringVar(&opts.columnsB.Price, "price-b", "price", "Price column of list B")
	fs.StringVar(&opts.vocabulary, "vocabulary", "", "Vocabulary YAML file (default: embedded)")
	fs.Float64Var(&opts.threshold, "threshold", usecase.DefaultPriceThreshold, "Smallest absolute price difference reported")
	fs.StringVar(&opts.outputJSON, "output-json", "", "Write the full report as JSON to this file (- for stdout)")
	fs.IntVar(&opts.top, "top", 25, "Number of matches printed in the summary (0 for all)")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall time limit")
	fs.StringVar(&opts.s3Region, "s3-region", "eu-central-1", "AWS region for s3:// locations")
	fs.StringVar(&opts.s3Bucket, "s3-bucket", "", "Bucket used for s3:///key locations")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.locationA == "" || opts.locationB == "" {
		fs.Usage()
		return opts, fmt.Errorf("%w: both -a and -b are required", errUsage)
	}
	if opts.threshold <= 0 {
		fs.Usage()
		return opts, fmt.Errorf("%w: -threshold must be positive, got %g", errUsage, opts.threshold)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := config.NewLoggerWithWriter(config.LoggerConfig{Level: opts.logLevel, Format: "console"}, stderr)

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	vocab, err := vocabulary.Load(opts.vocabulary)
	if err != nil {
		return err
	}

	resolver, err := newResolver(ctx, opts, logger)
	if err != nil {
		return err
	}

	rowsA, rowsB, err := source.LoadPair(ctx, resolver,
		source.Request{Location: opts.locationA, Columns: opts.columnsA},
		source.Request{Location: opts.locationB, Columns: opts.columnsB},
	)
	if err != nil {
		return err
	}

	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()

	service := usecase.NewComparisonService(vocab, memoryCache, usecase.ComparisonConfig{
		PriceThreshold: opts.threshold,
	}, logger)

	report, err := service.Compare(ctx, &domain.ComparisonRequest{
		LabelA: opts.labelA,
		LabelB: opts.labelB,
		RowsA:  rowsA,
		RowsB:  rowsB,
	})
	if err != nil {
		return err
	}

	switch opts.outputJSON {
	case "":
		return printSummary(stdout, report, opts.top)
	case "-":
		return writeJSON(stdout, report)
	default:
		if err := writeJSONFile(opts.outputJSON, report); err != nil {
			return err
		}
		if err := printSummary(stdout, report, opts.top); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "\nFull report written to %s\n", opts.outputJSON)
		return nil
	}
}

// newResolver enables every location kind; the S3 client is only created when a location needs it
func newResolver(ctx context.Context, opts options, logger zerolog.Logger) (*source.Resolver, error) {
	resolver := &source.Resolver{
		File:     source.NewFileSource(logger),
		HTTP:     source.NewHTTPSource(30*time.Second, 2, logger),
		SQLite:   source.NewSQLiteSource(logger),
		Postgres: source.NewPostgresSource(logger),
	}

	if isS3(opts.locationA) || isS3(opts.locationB) {
		s3Source, err := source.NewS3Source(ctx, opts.s3Region, opts.s3Bucket, logger)
		if err != nil {
			return nil, err
		}
		resolver.S3 = s3Source
	}
	return resolver, nil
}

func isS3(location string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(location)), "s3://")
}

func printSummary(w io.Writer, report *domain.Report, top int) error {
	fmt.Fprintf(w, "Run %s (threshold %.2f)\n\n", report.RunID, report.Threshold)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LIST\tROWS\tPRODUCTS\tSKIPPED\tPACKAGES\tSINGLES")
	for _, s := range []domain.ListStats{report.SourceA, report.SourceB} {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\n", s.Label, s.Rows, s.Products, s.Skipped, s.Packages, s.Singles)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d matched products with different prices\n", len(report.Matches))
	if len(report.Matches) == 0 {
		return nil
	}

	matches := report.Matches
	if top > 0 && len(matches) > top {
		matches = matches[:top]
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tPRODUCT (%s)\t%s\t%s\tDIFF\tDIFF %%\n", report.SourceA.Label, report.SourceA.Label, report.SourceB.Label)
	for i, m := range matches {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%+.2f\t%+.1f%%\n",
			i+1, m.ProductA.RawName, m.ProductA.Price, m.ProductB.Price, m.Difference, m.PercentDiff)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rest := len(report.Matches) - len(matches); rest > 0 {
		fmt.Fprintf(w, "... and %d more\n", rest)
	}
	return nil
}

func writeJSON(w io.Writer, report *domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeJSONFile(path string, report *domain.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := writeJSON(f, report); err != nil {
		f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}
