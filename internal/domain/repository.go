package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded payloads; callers own the encoding.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Columns names the header cells holding the product name and the price
type Columns struct {
	Name  string `json:"nameColumn"`
	Price string `json:"priceColumn"`
}

// RowSource loads raw price-list rows from a location (file path, URL, bucket key, database table)
type RowSource interface {
	Load(ctx context.Context, location string, columns Columns) ([]RawRow, error)
}
