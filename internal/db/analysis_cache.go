package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Analysis Cache Methods
// -----------------------------------------------------------------------------

// GetAnalysisHit returns the live record for a subject+requester pair if it
// is unexpired, matches inputHash, and was written with the current format
// version. The access accounting update happens in the same statement, so
// concurrent hits on the same pair never lose an increment.
func (db *DB) GetAnalysisHit(ctx context.Context, subjectID, requesterID, inputHash string) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	err := db.pool.QueryRow(ctx,
		`UPDATE analysis_cache
		 SET last_accessed_at = NOW(), access_count = access_count + 1
		 WHERE subject_id = $1 AND requester_id = $2 AND input_hash = $3
		   AND format_version = $4 AND expires_at > NOW()
		 RETURNING subject_id, requester_id, input_hash, payload, confidence,
		           created_at, updated_at, expires_at, last_accessed_at,
		           access_count, format_version`,
		subjectID, requesterID, inputHash, AnalysisFormatVersion,
	).Scan(&rec.SubjectID, &rec.RequesterID, &rec.InputHash, &rec.Payload,
		&rec.Confidence, &rec.CreatedAt, &rec.UpdatedAt, &rec.ExpiresAt,
		&rec.LastAccessedAt, &rec.AccessCount, &rec.FormatVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis record: %w", err)
	}
	return &rec, nil
}

// UpsertAnalysis writes a record for a subject+requester pair, replacing any
// prior record for the pair. The cache keeps one live report per pair, not a
// history log.
func (db *DB) UpsertAnalysis(ctx context.Context, input *AnalysisUpsert) error {
	expiresAt := time.Now().Add(input.TTL)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO analysis_cache (subject_id, requester_id, input_hash, payload,
		                             confidence, expires_at, format_version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (subject_id, requester_id) DO UPDATE SET
		     input_hash = $3,
		     payload = $4,
		     confidence = $5,
		     updated_at = NOW(),
		     expires_at = $6,
		     last_accessed_at = NOW(),
		     access_count = 0,
		     format_version = $7`,
		input.SubjectID, input.RequesterID, input.InputHash, input.Payload,
		input.Confidence, expiresAt, AnalysisFormatVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis record: %w", err)
	}
	return nil
}

// DeleteAnalysis removes the record for a subject+requester pair. Used for
// storage hygiene when a stored payload no longer deserializes.
func (db *DB) DeleteAnalysis(ctx context.Context, subjectID, requesterID string) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM analysis_cache WHERE subject_id = $1 AND requester_id = $2`,
		subjectID, requesterID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete analysis record: %w", err)
	}
	return nil
}
