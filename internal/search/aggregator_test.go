package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/salary-intel/internal/retry"
	"github.com/jonathan/salary-intel/internal/types"
)

// scriptedSearcher returns canned results keyed by substring of the query.
type scriptedSearcher struct {
	mu      sync.Mutex
	byQuery map[string][]types.SearchResult
	errFor  map[string]error
	calls   []string
}

func (s *scriptedSearcher) Search(_ context.Context, query string, _ []string) ([]types.SearchResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query)
	s.mu.Unlock()

	for key, err := range s.errFor {
		if strings.Contains(query, key) {
			return nil, err
		}
	}
	for key, results := range s.byQuery {
		if strings.Contains(query, key) {
			return results, nil
		}
	}
	return nil, nil
}

func goodResult(url string, relevance float64) types.SearchResult {
	return types.SearchResult{
		Title:     "Software Engineer Salaries",
		URL:       url,
		Content:   "Detailed compensation data for software engineers across experience levels.",
		Relevance: relevance,
	}
}

func testRequest() *types.AnalysisRequest {
	return &types.AnalysisRequest{
		SubjectID:   "job-1",
		RequesterID: "user-1",
		JobTitle:    "Software Engineer",
		Company:     "Acme",
		Location:    "Austin, TX",
	}
}

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 2.0}
}

func TestAggregate_MergesAndCategorizes(t *testing.T) {
	searcher := &scriptedSearcher{
		byQuery: map[string][]types.SearchResult{
			"salary": {goodResult("https://levels.example/se", 0.9)},
			"compensation culture": {goodResult("https://reviews.example/acme", 0.8)},
			"trends": {goodResult("https://trends.example/eng", 0.7)},
		},
	}

	agg, err := NewAggregator(searcher, fastRetry(), time.Second).Aggregate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Len(t, agg.Results, 3)
	assert.Equal(t, 1, agg.CountByCategory(types.CategorySalaryData))
	assert.Equal(t, 1, agg.CountByCategory(types.CategoryCompanyInfo))
	assert.Equal(t, 1, agg.CountByCategory(types.CategoryMarketTrends))
	assert.Len(t, agg.Queries, 3)
	assert.Contains(t, agg.Queries[0], "Software Engineer")
}

func TestAggregate_OneFailingBranchDoesNotCancelOthers(t *testing.T) {
	searcher := &scriptedSearcher{
		byQuery: map[string][]types.SearchResult{
			"salary": {goodResult("https://levels.example/se", 0.9)},
			"trends": {goodResult("https://trends.example/eng", 0.7)},
		},
		errFor: map[string]error{
			"compensation culture": errors.New("provider quota exceeded"),
		},
	}

	agg, err := NewAggregator(searcher, fastRetry(), time.Second).Aggregate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Len(t, agg.Results, 2)
	assert.Equal(t, 0, agg.CountByCategory(types.CategoryCompanyInfo))
}

func TestAggregate_RetriesFailedBranch(t *testing.T) {
	attempts := 0
	searcher := &countingSearcher{fn: func() ([]types.SearchResult, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("transient")
		}
		return []types.SearchResult{goodResult("https://ok.example/r", 0.6)}, nil
	}}

	agg, err := NewAggregator(searcher, fastRetry(), time.Second).Aggregate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, agg.Results)
}

// countingSearcher runs the same fn for every branch.
type countingSearcher struct {
	mu sync.Mutex
	fn func() ([]types.SearchResult, error)
}

func (s *countingSearcher) Search(context.Context, string, []string) ([]types.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn()
}

func TestAggregate_AllBranchesEmpty(t *testing.T) {
	searcher := &scriptedSearcher{}

	agg, err := NewAggregator(searcher, fastRetry(), time.Second).Aggregate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Empty(t, agg.Results)
	assert.Len(t, agg.Queries, 3, "queries are reported even when nothing survives")
}

func TestAggregate_AverageRelevance(t *testing.T) {
	agg := &Aggregation{Results: []types.SearchResult{
		{Relevance: 0.4}, {Relevance: 0.8},
	}}
	assert.InDelta(t, 0.6, agg.AverageRelevance(), 0.001)

	empty := &Aggregation{}
	assert.Zero(t, empty.AverageRelevance())
}
