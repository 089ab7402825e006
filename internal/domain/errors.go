package domain

import "errors"

var (
	// ErrEmptyName is returned when a product name normalizes to an empty string
	ErrEmptyName = errors.New("product name is empty after normalization")

	// ErrInvalidPrice is returned when a price token cannot be parsed
	ErrInvalidPrice = errors.New("price could not be parsed")

	// ErrNonPositivePrice is returned when a parsed price is zero or negative
	ErrNonPositivePrice = errors.New("price must be greater than zero")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrReportNotFound is returned when no report exists for a run ID
	ErrReportNotFound = errors.New("comparison report not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnsupportedFormat is returned for price-list files that are neither CSV nor XLSX
	ErrUnsupportedFormat = errors.New("unsupported price list format")

	// ErrColumnNotFound is returned when a configured name or price column is missing from the header
	ErrColumnNotFound = errors.New("column not found")

	// ErrSourceDecode is returned when a whole price-list file cannot be decoded
	ErrSourceDecode = errors.New("price list could not be decoded")

	// ErrRemoteFetch is returned when a remote price list cannot be downloaded
	ErrRemoteFetch = errors.New("remote price list request failed")

	// ErrLocationNotAllowed is returned when a remote location names a host outside the allow-list
	ErrLocationNotAllowed = errors.New("price list location is not allowed")
)
