package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/salary-intel/internal/retry"
	"github.com/jonathan/salary-intel/internal/types"
)

// DefaultBranchTimeout bounds one search branch, including its retries.
const DefaultBranchTimeout = 20 * time.Second

// Aggregation holds the merged, filtered evidence from all search branches,
// plus the literal query strings used for audit and debugging.
type Aggregation struct {
	Results []types.SearchResult
	Queries []string
}

// CountByCategory returns how many surviving results a category produced.
func (a *Aggregation) CountByCategory(category types.SourceCategory) int {
	count := 0
	for _, r := range a.Results {
		if r.Category == category {
			count++
		}
	}
	return count
}

// AverageRelevance returns the mean relevance across surviving results,
// or 0 when there are none.
func (a *Aggregation) AverageRelevance() float64 {
	if len(a.Results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range a.Results {
		sum += r.Relevance
	}
	return sum / float64(len(a.Results))
}

// Aggregator runs the three research queries concurrently and filters the
// merged results. Search traffic is independent of the scraping rate
// limiter, which only governs the location-metrics adapters.
type Aggregator struct {
	searcher      Searcher
	policy        retry.Policy
	branchTimeout time.Duration
}

// NewAggregator creates an aggregator using the shared retry policy.
func NewAggregator(searcher Searcher, policy retry.Policy, branchTimeout time.Duration) *Aggregator {
	if branchTimeout <= 0 {
		branchTimeout = DefaultBranchTimeout
	}
	return &Aggregator{
		searcher:      searcher,
		policy:        policy,
		branchTimeout: branchTimeout,
	}
}

type branch struct {
	category types.SourceCategory
	query    string
	hints    []string
}

// buildBranches derives the three query branches from the request.
func buildBranches(req *types.AnalysisRequest) []branch {
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = "united states"
	}

	return []branch{
		{
			category: types.CategorySalaryData,
			query:    fmt.Sprintf("%s salary range %s", req.JobTitle, location),
			hints:    SalaryDataDomains(),
		},
		{
			category: types.CategoryCompanyInfo,
			query:    fmt.Sprintf("%s company compensation culture reviews", req.Company),
		},
		{
			category: types.CategoryMarketTrends,
			query:    fmt.Sprintf("%s hiring market demand trends", req.JobTitle),
		},
	}
}

// Aggregate fans out all branches, waits for every one to settle, and
// returns the merged filtered results. One failing branch never cancels
// the others; a branch failure just contributes zero results.
func (a *Aggregator) Aggregate(ctx context.Context, req *types.AnalysisRequest) (*Aggregation, error) {
	branches := buildBranches(req)

	agg := &Aggregation{Queries: make([]string, len(branches))}
	for i, b := range branches {
		agg.Queries[i] = b.query
	}

	perBranch := make([][]types.SearchResult, len(branches))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, b := range branches {
		i, b := i, b
		g.Go(func() error {
			branchCtx, cancel := context.WithTimeout(groupCtx, a.branchTimeout)
			defer cancel()

			var results []types.SearchResult
			err := a.policy.Do(branchCtx, func(attemptCtx context.Context) error {
				var searchErr error
				results, searchErr = a.searcher.Search(attemptCtx, b.query, b.hints)
				return searchErr
			})
			if err != nil {
				// Settle, don't cancel siblings: return nil and log.
				log.Printf("[SEARCH] Branch %s failed: %v", b.category, err)
				return nil
			}

			for j := range results {
				results[j].Category = b.category
			}
			perBranch[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search aggregation failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []types.SearchResult
	for _, results := range perBranch {
		merged = append(merged, results...)
	}
	agg.Results = FilterResults(merged)

	return agg, nil
}
