package locations

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/salary-intel/internal/fetchq"
	"github.com/jonathan/salary-intel/internal/types"
)

// FreshWindow is how long a stored metric set is served without any
// network activity.
const FreshWindow = 30 * 24 * time.Hour

// ConfidenceThreshold is the minimum adapter confidence accepted as a
// trustworthy result.
const ConfidenceThreshold = 0.5

// MetricsStore is the persistence surface the resolver needs. *db.DB
// implements it.
type MetricsStore interface {
	GetLocationMetrics(ctx context.Context, key string) (*types.ScrapedMetricSet, error)
	PutLocationMetrics(ctx context.Context, key string, metrics *types.ScrapedMetricSet) error
}

// Resolver produces cost-of-living metrics for a location, preferring the
// local store, then the ordered adapters, then a stale record as a
// last-resort degraded fallback.
type Resolver struct {
	store     MetricsStore
	queue     *fetchq.Queue
	adapters  []Adapter
	freshness time.Duration
}

// NewResolver creates a resolver. Adapters are tried in the order given;
// every adapter fetch goes through queue so the global spacing guarantee
// stays meaningful. Pass 0 freshness to use FreshWindow.
func NewResolver(store MetricsStore, queue *fetchq.Queue, adapters []Adapter, freshness time.Duration) *Resolver {
	if freshness <= 0 {
		freshness = FreshWindow
	}
	return &Resolver{
		store:     store,
		queue:     queue,
		adapters:  adapters,
		freshness: freshness,
	}
}

// Resolve returns metrics for the query, or nil when no source (including
// the stale cache) can provide any. Callers must treat nil as "no data" and
// never substitute an invented number.
func (r *Resolver) Resolve(ctx context.Context, query types.LocationQuery) (*types.ScrapedMetricSet, error) {
	key := query.Key()

	cached, err := r.store.GetLocationMetrics(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("location cache read failed: %w", err)
	}
	if cached != nil && cached.AgeAt(time.Now()) < r.freshness {
		return cached, nil
	}

	// Adapters run one at a time. Trying them concurrently would make the
	// queue's spacing guarantee meaningless across sources.
	for _, adapter := range r.adapters {
		metrics, err := r.fetchThroughQueue(ctx, adapter, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[LOCATIONS] Adapter %s failed for %q: %v", adapter.Name(), key, err)
			continue
		}
		if metrics == nil || !metrics.Valid() || metrics.Confidence <= ConfidenceThreshold {
			log.Printf("[LOCATIONS] Adapter %s below confidence threshold for %q", adapter.Name(), key)
			continue
		}

		if err := r.store.PutLocationMetrics(ctx, key, metrics); err != nil {
			// Persistence failure doesn't invalidate the data we just got.
			log.Printf("[LOCATIONS] Failed to persist metrics for %q: %v", key, err)
		}
		return metrics, nil
	}

	if cached != nil {
		log.Printf("[LOCATIONS] Serving stale metrics for %q (captured %s)", key, cached.CapturedAt.Format(time.RFC3339))
		return cached, nil
	}

	return nil, nil
}

// fetchThroughQueue runs one adapter fetch inside the rate-limited queue.
func (r *Resolver) fetchThroughQueue(ctx context.Context, adapter Adapter, query types.LocationQuery) (*types.ScrapedMetricSet, error) {
	var metrics *types.ScrapedMetricSet
	err := r.queue.Do(ctx, func(taskCtx context.Context) error {
		var fetchErr error
		metrics, fetchErr = adapter.Fetch(taskCtx, query)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return metrics, nil
}
