package db

import "time"

// AnalysisFormatVersion is the current serialization format for cached
// reports. Bump it when the report payload shape changes; records written
// under an older version are treated as misses.
const AnalysisFormatVersion = 1

// AnalysisRecord is one row of the analysis_cache table. There is exactly
// one live record per (SubjectID, RequesterID) pair.
type AnalysisRecord struct {
	SubjectID      string
	RequesterID    string
	InputHash      string
	Payload        []byte
	Confidence     float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ExpiresAt      time.Time
	LastAccessedAt time.Time
	AccessCount    int64
	FormatVersion  int
}

// AnalysisUpsert carries the fields written on a cache put.
type AnalysisUpsert struct {
	SubjectID   string
	RequesterID string
	InputHash   string
	Payload     []byte
	Confidence  float64
	TTL         time.Duration
}

// LocationRecord is one row of the location_metrics table, keyed by the
// normalized location string.
type LocationRecord struct {
	Key        string
	Metrics    []byte
	Source     string
	CapturedAt time.Time
	UpdatedAt  time.Time
}
