package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/salary-intel/internal/types"
)

// -----------------------------------------------------------------------------
// Location Metrics Methods
// -----------------------------------------------------------------------------

// GetLocationMetrics returns the stored metric set for a normalized location
// key, regardless of age. Returns nil when no record exists. Staleness
// decisions belong to the resolver, which may still serve an old record as a
// degraded fallback.
func (db *DB) GetLocationMetrics(ctx context.Context, key string) (*types.ScrapedMetricSet, error) {
	var metricsJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT metrics FROM location_metrics WHERE normalized_key = $1`,
		key,
	).Scan(&metricsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get location metrics: %w", err)
	}

	var metrics types.ScrapedMetricSet
	if err := json.Unmarshal(metricsJSON, &metrics); err != nil {
		// A row we can no longer read is worthless; drop it so the next
		// fetch overwrites cleanly.
		_, _ = db.pool.Exec(ctx, `DELETE FROM location_metrics WHERE normalized_key = $1`, key)
		return nil, nil
	}
	return &metrics, nil
}

// PutLocationMetrics stores a metric set for a normalized location key,
// overwriting any prior record for the same key.
func (db *DB) PutLocationMetrics(ctx context.Context, key string, metrics *types.ScrapedMetricSet) error {
	if metrics.CapturedAt.IsZero() {
		metrics.CapturedAt = time.Now()
	}

	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal location metrics: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO location_metrics (normalized_key, metrics, source, captured_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (normalized_key) DO UPDATE SET
		     metrics = $2,
		     source = $3,
		     captured_at = $4,
		     updated_at = NOW()`,
		key, metricsJSON, metrics.Source, metrics.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put location metrics: %w", err)
	}
	return nil
}
