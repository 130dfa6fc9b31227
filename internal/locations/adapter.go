// Package locations resolves cost-of-living metrics for a location via
// cache, then an ordered list of scraping adapters, then a stale-cache
// fallback. All adapter HTTP traffic is serialized through the shared
// rate-limited fetch queue.
package locations

import (
	"context"

	"github.com/jonathan/salary-intel/internal/types"
)

// Adapter scrapes one external cost-of-living source. Fetch runs inside the
// rate-limited queue; adapters must not issue HTTP requests outside it.
type Adapter interface {
	// Name identifies the adapter for logging and attribution.
	Name() string
	// Fetch retrieves and parses metrics for the location. A nil metric set
	// with a nil error is not allowed; failures must be errors.
	Fetch(ctx context.Context, query types.LocationQuery) (*types.ScrapedMetricSet, error)
}

// scoreConfidence computes a confidence score for a parsed metric set from
// the validity of its core numeric fields, the sample-size signal if the
// source reports one, and a small bonus when a salary figure was extracted.
func scoreConfidence(m *types.ScrapedMetricSet) float64 {
	score := 0.0

	for _, v := range []float64{
		m.CostOfLivingIndex,
		m.RentIndex,
		m.GroceriesIndex,
		m.RestaurantIndex,
		m.TransportIndex,
		m.UtilitiesIndex,
	} {
		if v > 0 {
			score += 0.1
		}
	}

	if m.DataPointCount != nil {
		switch n := *m.DataPointCount; {
		case n >= 100:
			score += 0.15
		case n >= 20:
			score += 0.1
		case n > 0:
			score += 0.05
		}
	}

	if m.AvgNetSalaryUSD != nil && *m.AvgNetSalaryUSD > 0 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
