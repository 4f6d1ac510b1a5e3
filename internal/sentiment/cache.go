// Package sentiment provides the cache-first accessor for per-symbol
// sentiment/news metrics. Lookups hit the durable local store first and only
// reach the backend on a miss; concurrent misses for one symbol share a
// single fetch.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tickerdesk/tickerdesk/pkg/models"
)

// ErrNotFound is returned by a Store when no entry exists for a symbol.
var ErrNotFound = errors.New("sentiment: no cache entry")

// Store is the durable key-value backing for sentiment reports. Writes are
// whole-entry, last-writer-wins.
type Store interface {
	Get(ctx context.Context, symbol string) (*models.SentimentReport, error)
	Put(ctx context.Context, report *models.SentimentReport) error
	Close() error
}

// Fetcher produces a fresh sentiment report for a symbol, typically over the
// network.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*models.SentimentReport, error)
}

// Cache is the cache-first accessor. ttl of 0 keeps entries valid forever.
type Cache struct {
	store   Store
	fetcher Fetcher
	ttl     time.Duration
	group   singleflight.Group
}

// New creates a cache over the given store and fetcher.
func New(store Store, fetcher Fetcher, ttl time.Duration) *Cache {
	return &Cache{store: store, fetcher: fetcher, ttl: ttl}
}

// Get returns the sentiment report for symbol. A fresh durable entry is
// returned without any network access. On a miss the backend is fetched,
// the result written through, and the report returned; fetch failures
// propagate and never leave a partial entry behind. Concurrent misses for
// the same symbol share one fetch.
func (c *Cache) Get(ctx context.Context, symbol string) (*models.SentimentReport, error) {
	if report, err := c.store.Get(ctx, symbol); err == nil && c.fresh(report) {
		return report, nil
	}

	v, err, _ := c.group.Do(symbol, func() (any, error) {
		// Re-check under the flight: another caller may have completed
		// the write while this one queued.
		if report, err := c.store.Get(ctx, symbol); err == nil && c.fresh(report) {
			return report, nil
		}

		report, err := c.fetcher.Fetch(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("fetch sentiment for %s: %w", symbol, err)
		}
		if err := c.store.Put(ctx, report); err != nil {
			return nil, fmt.Errorf("cache sentiment for %s: %w", symbol, err)
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SentimentReport), nil
}

func (c *Cache) fresh(report *models.SentimentReport) bool {
	if c.ttl == 0 {
		return true
	}
	return time.Since(report.FetchedAt) < c.ttl
}
