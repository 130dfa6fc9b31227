// Package cache provides the content-addressed analysis report cache.
// Records are keyed by (subjectID, requesterID); the input hash is stored
// alongside the payload and compared on read, so a changed job or profile
// is a miss rather than a stale hit.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/salary-intel/internal/db"
	"github.com/jonathan/salary-intel/internal/types"
)

// DefaultTTL is how long a cached analysis report stays servable.
const DefaultTTL = 7 * 24 * time.Hour

// Store is the persistence surface the cache needs. *db.DB implements it.
type Store interface {
	GetAnalysisHit(ctx context.Context, subjectID, requesterID, inputHash string) (*db.AnalysisRecord, error)
	UpsertAnalysis(ctx context.Context, input *db.AnalysisUpsert) error
	DeleteAnalysis(ctx context.Context, subjectID, requesterID string) error
}

// AnalysisCache avoids repeating the expensive search + synthesis pipeline
// for an unchanged input.
type AnalysisCache struct {
	store Store
	ttl   time.Duration
}

// New creates an analysis cache backed by store. Pass 0 for the default TTL.
func New(store Store, ttl time.Duration) *AnalysisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnalysisCache{store: store, ttl: ttl}
}

// Hit is a successful cache read.
type Hit struct {
	Report      *types.AnalysisReport
	Confidence  float64
	AccessCount int64
	CachedAt    time.Time
}

// Get returns the cached report for the key, or nil on any kind of miss:
// no record, expired record, input hash mismatch, or a payload that no
// longer deserializes. A corrupt payload is deleted and reported as a miss,
// never surfaced as a failure.
func (c *AnalysisCache) Get(ctx context.Context, subjectID, requesterID, inputHash string) (*Hit, error) {
	rec, err := c.store.GetAnalysisHit(ctx, subjectID, requesterID, inputHash)
	if err != nil {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	// The store query filters expired rows; an expired row slipping through
	// must still never become a hit.
	if time.Now().After(rec.ExpiresAt) {
		return nil, nil
	}

	var report types.AnalysisReport
	if err := json.Unmarshal(rec.Payload, &report); err != nil {
		log.Printf("[CACHE] Corrupt payload for subject=%s requester=%s, dropping record: %v",
			subjectID, requesterID, err)
		if delErr := c.store.DeleteAnalysis(ctx, subjectID, requesterID); delErr != nil {
			log.Printf("[CACHE] Failed to drop corrupt record: %v", delErr)
		}
		return nil, nil
	}

	return &Hit{
		Report:      &report,
		Confidence:  rec.Confidence,
		AccessCount: rec.AccessCount,
		CachedAt:    rec.UpdatedAt,
	}, nil
}

// Put stores a report for the key, replacing any prior record for the
// subject+requester pair.
func (c *AnalysisCache) Put(ctx context.Context, subjectID, requesterID, inputHash string, report *types.AnalysisReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	err = c.store.UpsertAnalysis(ctx, &db.AnalysisUpsert{
		SubjectID:   subjectID,
		RequesterID: requesterID,
		InputHash:   inputHash,
		Payload:     payload,
		Confidence:  report.SalaryRange.Confidence,
		TTL:         c.ttl,
	})
	if err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}
