// Package types provides type definitions for structured data used throughout the salary-intel system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"math"
	"strings"
	"time"
)

// LocationQuery identifies a location for cost-of-living lookups.
type LocationQuery struct {
	City     string `json:"city"`
	Country  string `json:"country"`
	State    string `json:"state,omitempty"`
	IsRemote bool   `json:"is_remote,omitempty"`
}

// Key returns the normalized cache key for this location.
// Equal logical locations always produce the same key.
func (q LocationQuery) Key() string {
	parts := []string{normalizeLocationPart(q.City), normalizeLocationPart(q.Country)}
	if state := normalizeLocationPart(q.State); state != "" {
		parts = append(parts, state)
	}
	return strings.Join(parts, "|")
}

func normalizeLocationPart(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ScrapedMetricSet holds cost-of-living metrics extracted from one external source.
type ScrapedMetricSet struct {
	CostOfLivingIndex float64   `json:"cost_of_living_index"`
	RentIndex         float64   `json:"rent_index"`
	GroceriesIndex    float64   `json:"groceries_index"`
	RestaurantIndex   float64   `json:"restaurant_index"`
	TransportIndex    float64   `json:"transport_index"`
	UtilitiesIndex    float64   `json:"utilities_index"`
	AvgNetSalaryUSD   *float64  `json:"avg_net_salary_usd,omitempty"`
	Source            string    `json:"source"` // Includes human-readable attribution
	Confidence        float64   `json:"confidence"`
	DataPointCount    *int      `json:"data_point_count,omitempty"`
	CapturedAt        time.Time `json:"captured_at"`
}

// Valid reports whether the metric set satisfies its basic invariants.
func (m *ScrapedMetricSet) Valid() bool {
	if m == nil {
		return false
	}
	if m.CostOfLivingIndex <= 0 {
		return false
	}
	if math.IsNaN(m.Confidence) || m.Confidence < 0 || m.Confidence > 1 {
		return false
	}
	return true
}

// AgeAt returns how old the metric set is relative to now.
func (m *ScrapedMetricSet) AgeAt(now time.Time) time.Duration {
	return now.Sub(m.CapturedAt)
}
