package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/salary-intel/internal/db"
	"github.com/jonathan/salary-intel/internal/types"
)

// fakeStore implements Store in memory with the same semantics as the
// real table: one record per pair, hit accounting on matched reads.
type fakeStore struct {
	records map[string]*db.AnalysisRecord
	deletes []string
	getErr  error
	// skipExpiryFilter simulates a store serving rows past their expiry,
	// e.g. a replica with clock skew.
	skipExpiryFilter bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*db.AnalysisRecord)}
}

func pairKey(subjectID, requesterID string) string {
	return subjectID + "/" + requesterID
}

func (s *fakeStore) GetAnalysisHit(_ context.Context, subjectID, requesterID, inputHash string) (*db.AnalysisRecord, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.records[pairKey(subjectID, requesterID)]
	if !ok {
		return nil, nil
	}
	if rec.InputHash != inputHash {
		return nil, nil
	}
	if !s.skipExpiryFilter && time.Now().After(rec.ExpiresAt) {
		return nil, nil
	}
	rec.AccessCount++
	rec.LastAccessedAt = time.Now()
	copied := *rec
	return &copied, nil
}

func (s *fakeStore) UpsertAnalysis(_ context.Context, input *db.AnalysisUpsert) error {
	now := time.Now()
	s.records[pairKey(input.SubjectID, input.RequesterID)] = &db.AnalysisRecord{
		SubjectID:     input.SubjectID,
		RequesterID:   input.RequesterID,
		InputHash:     input.InputHash,
		Payload:       input.Payload,
		Confidence:    input.Confidence,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(input.TTL),
		FormatVersion: db.AnalysisFormatVersion,
	}
	return nil
}

func (s *fakeStore) DeleteAnalysis(_ context.Context, subjectID, requesterID string) error {
	key := pairKey(subjectID, requesterID)
	delete(s.records, key)
	s.deletes = append(s.deletes, key)
	return nil
}

func sampleReport() *types.AnalysisReport {
	return &types.AnalysisReport{
		SalaryRange: types.SalaryRange{
			Min: 90000, Median: 110000, Max: 135000, Currency: "USD", Confidence: 0.7,
		},
		MarketPosition: types.PositionAtMarket,
	}
}

func TestCache_PutThenGet(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "job-1", "user-1", "hash-a", sampleReport()))

	hit, err := c.Get(ctx, "job-1", "user-1", "hash-a")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.InDelta(t, 110000, hit.Report.SalaryRange.Median, 0.001)
	assert.Equal(t, int64(1), hit.AccessCount)
}

func TestCache_AccessCountStrictlyIncreases(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "job-1", "user-1", "hash-a", sampleReport()))

	first, err := c.Get(ctx, "job-1", "user-1", "hash-a")
	require.NoError(t, err)
	second, err := c.Get(ctx, "job-1", "user-1", "hash-a")
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Greater(t, second.AccessCount, first.AccessCount)
	assert.Equal(t, first.Report, second.Report)
}

func TestCache_HashMismatchIsMiss(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "job-1", "user-1", "hash-a", sampleReport()))

	hit, err := c.Get(ctx, "job-1", "user-1", "hash-b")
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestCache_ExpiredIsMiss(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Hour)
	ctx := context.Background()

	payload, err := json.Marshal(sampleReport())
	require.NoError(t, err)
	store.records[pairKey("job-1", "user-1")] = &db.AnalysisRecord{
		SubjectID:   "job-1",
		RequesterID: "user-1",
		InputHash:   "hash-a",
		Payload:     payload,
		ExpiresAt:   time.Now().Add(-time.Minute),
	}

	hit, err := c.Get(ctx, "job-1", "user-1", "hash-a")
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestCache_ExpiredRowFromStoreIsStillMiss(t *testing.T) {
	store := newFakeStore()
	store.skipExpiryFilter = true
	c := New(store, time.Hour)
	ctx := context.Background()

	payload, err := json.Marshal(sampleReport())
	require.NoError(t, err)
	store.records[pairKey("job-1", "user-1")] = &db.AnalysisRecord{
		SubjectID:   "job-1",
		RequesterID: "user-1",
		InputHash:   "hash-a",
		Payload:     payload,
		ExpiresAt:   time.Now().Add(-time.Minute),
	}

	hit, err := c.Get(ctx, "job-1", "user-1", "hash-a")
	require.NoError(t, err)
	assert.Nil(t, hit, "an expired row served by the store must not become a hit")
}

func TestCache_CorruptPayloadDeletedAndMiss(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Hour)
	ctx := context.Background()

	store.records[pairKey("job-1", "user-1")] = &db.AnalysisRecord{
		SubjectID:   "job-1",
		RequesterID: "user-1",
		InputHash:   "hash-a",
		Payload:     []byte("{not json"),
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	hit, err := c.Get(ctx, "job-1", "user-1", "hash-a")
	require.NoError(t, err) // Corruption is never a caller-visible failure
	assert.Nil(t, hit)
	assert.Contains(t, store.deletes, pairKey("job-1", "user-1"))
}

func TestCache_StoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	c := New(store, time.Hour)

	_, err := c.Get(context.Background(), "job-1", "user-1", "hash-a")
	assert.Error(t, err)
}

func TestCache_PutReplacesPriorRecord(t *testing.T) {
	store := newFakeStore()
	c := New(store, time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "job-1", "user-1", "hash-a", sampleReport()))

	updated := sampleReport()
	updated.SalaryRange.Median = 120000
	require.NoError(t, c.Put(ctx, "job-1", "user-1", "hash-b", updated))

	assert.Len(t, store.records, 1)

	hit, err := c.Get(ctx, "job-1", "user-1", "hash-b")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.InDelta(t, 120000, hit.Report.SalaryRange.Median, 0.001)

	var stored types.AnalysisReport
	rec := store.records[pairKey("job-1", "user-1")]
	require.NoError(t, json.Unmarshal(rec.Payload, &stored))
	assert.Equal(t, "hash-b", rec.InputHash)
}
