// Package search fans out market research queries concurrently and filters
// the merged results before they are allowed to feed synthesis.
package search

import (
	"context"

	"github.com/jonathan/salary-intel/internal/types"
)

// Searcher is the abstract search capability this pipeline depends on.
// It is provider-agnostic: only the result shape matters.
type Searcher interface {
	// Search runs one query. domainHints optionally biases the provider
	// toward known-good sites; providers may ignore it.
	Search(ctx context.Context, query string, domainHints []string) ([]types.SearchResult, error)
}

// SalaryDataDomains are sites trusted for compensation benchmarks.
func SalaryDataDomains() []string {
	return []string{
		"levels.fyi",
		"glassdoor.com",
		"salary.com",
		"payscale.com",
		"bls.gov",
	}
}
