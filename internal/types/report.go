package types

import (
	"fmt"
	"math"
	"time"
)

// MarketPosition classifies a posted salary relative to the market range.
type MarketPosition string

// Market position constants.
const (
	PositionBelowMarket MarketPosition = "below_market"
	PositionAtMarket    MarketPosition = "at_market"
	PositionAboveMarket MarketPosition = "above_market"
)

// SalaryRange is the numeric core of an analysis report.
type SalaryRange struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Median     float64 `json:"median"`
	Currency   string  `json:"currency"`
	Confidence float64 `json:"confidence"`
}

// Validate checks the hard numeric invariants of a salary range.
// Violations mean the range must be rejected outright, never clamped.
func (s *SalaryRange) Validate() error {
	for name, v := range map[string]float64{"min": s.Min, "max": s.Max, "median": s.Median} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("salary %s is not a finite number", name)
		}
		if v < 0 {
			return fmt.Errorf("salary %s is negative: %v", name, v)
		}
	}
	if s.Min > s.Median || s.Median > s.Max {
		return fmt.Errorf("salary bounds out of order: min=%v median=%v max=%v", s.Min, s.Median, s.Max)
	}
	return nil
}

// ConfidenceValid reports whether the self-reported confidence is a usable
// value in [0,1]. Unlike range bounds, an invalid confidence is recoverable.
func (s *SalaryRange) ConfidenceValid() bool {
	return !math.IsNaN(s.Confidence) && s.Confidence >= 0 && s.Confidence <= 1
}

// ReportMetadata carries bookkeeping attached to every report.
type ReportMetadata struct {
	AnalysisID       string    `json:"analysis_id"`
	Timestamp        time.Time `json:"timestamp"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
}

// AnalysisReport is a validated salary intelligence report.
type AnalysisReport struct {
	SalaryRange          SalaryRange    `json:"salary_range"`
	MarketPosition       MarketPosition `json:"market_position"`
	PersonalizedInsights []string       `json:"personalized_insights"`
	Recommendations      []string       `json:"recommendations"`
	Sources              []Citation     `json:"sources"`
	Metadata             ReportMetadata `json:"metadata"`
}

// Validate checks the report-level invariants.
func (r *AnalysisReport) Validate() error {
	if err := r.SalaryRange.Validate(); err != nil {
		return err
	}
	if !r.SalaryRange.ConfidenceValid() {
		return fmt.Errorf("confidence out of range: %v", r.SalaryRange.Confidence)
	}
	switch r.MarketPosition {
	case PositionBelowMarket, PositionAtMarket, PositionAboveMarket:
	default:
		return fmt.Errorf("unknown market position: %q", r.MarketPosition)
	}
	return nil
}
