package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricelens/backend/config"
	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/infrastructure/source"
	"github.com/pricelens/backend/internal/usecase"
	"github.com/pricelens/backend/internal/vocabulary"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting PriceLens backend v1.0.0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vocab, err := vocabulary.Load(cfg.Comparison.VocabularyFile)
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}
	logger.Info().
		Int("brands", len(vocab.Brands)).
		Int("flavors", len(vocab.Flavors)).
		Str("file", cfg.Comparison.VocabularyFile).
		Msg("vocabulary loaded")

	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()

	comparisonService := usecase.NewComparisonService(
		vocab,
		memoryCache,
		usecase.ComparisonConfig{
			PriceThreshold: cfg.Comparison.PriceThreshold,
			ReportTTL:      cfg.Cache.TTL,
			Timeout:        cfg.Comparison.Timeout,
		},
		logger,
	)

	handler := httpDelivery.NewHandler(
		comparisonService,
		remoteResolver(ctx, cfg, logger),
		httpDelivery.HandlerConfig{
			MaxUploadBytes: cfg.Server.MaxUploadBytes(),
			ListA:          listDefaults(cfg.Sources.A),
			ListB:          listDefaults(cfg.Sources.B),
		},
		logger,
	)

	router := httpDelivery.SetupRouter(cfg, handler, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Comparison.Timeout + cfg.Sources.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("address", server.Addr).Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// remoteResolver builds the sources reachable through the remote comparison
// endpoint. Local files and SQLite paths stay CLI-only. HTTP and PostgreSQL
// locations are off unless enabled, and then limited to their allowed hosts.
// A nil result disables the endpoint.
func remoteResolver(ctx context.Context, cfg *config.Config, logger zerolog.Logger) domain.RowSource {
	resolver := &source.Resolver{}
	enabled := false

	if remote := cfg.Sources.HTTP; remote.Enabled {
		hosts := source.HostList(remote.AllowedHosts)
		httpSource := source.NewHTTPSource(cfg.Sources.HTTPTimeout, cfg.RateLimit.Remote, logger)
		httpSource.RestrictRedirects(hosts)
		resolver.HTTP = source.RestrictHosts(httpSource, hosts)
		enabled = true
		logger.Info().Strs("allowed_hosts", remote.AllowedHosts).Msg("http(s):// locations enabled")
	}

	if remote := cfg.Sources.Postgres; remote.Enabled {
		resolver.Postgres = source.RestrictHosts(source.NewPostgresSource(logger), source.HostList(remote.AllowedHosts))
		enabled = true
		logger.Info().Strs("allowed_hosts", remote.AllowedHosts).Msg("postgres:// locations enabled")
	}

	if cfg.S3.Enabled {
		s3Source, err := source.NewS3Source(ctx, cfg.S3.Region, cfg.S3.Bucket, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 source, s3:// locations disabled")
		} else {
			resolver.S3 = s3Source
			enabled = true
		}
	} else {
		logger.Info().Msg("S3 disabled, s3:// locations are rejected")
	}

	if !enabled {
		logger.Info().Msg("no remote location kind enabled, remote comparisons are disabled")
		return nil
	}
	return resolver
}

func listDefaults(src config.SourceConfig) httpDelivery.ListDefaults {
	return httpDelivery.ListDefaults{
		Label:   src.Label,
		Columns: domain.Columns{Name: src.NameColumn, Price: src.PriceColumn},
	}
}
