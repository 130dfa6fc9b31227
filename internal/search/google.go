package search

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/jonathan/salary-intel/internal/types"
)

// maxResultsPerQuery bounds how many results one query contributes.
const maxResultsPerQuery = 8

// GoogleSearcher implements Searcher using the Google Custom Search API.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher creates a searcher bound to a programmable search engine.
func NewGoogleSearcher(ctx context.Context, apiKey, cx string) (*GoogleSearcher, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Search runs one query and maps the provider items onto SearchResult.
// The category field is left empty; the aggregator owns categorization.
func (g *GoogleSearcher) Search(ctx context.Context, query string, domainHints []string) ([]types.SearchResult, error) {
	q := query
	if len(domainHints) > 0 {
		q = query + " " + siteClause(domainHints)
	}

	resp, err := g.svc.Cse.List().Context(ctx).Cx(g.cx).Q(q).Num(maxResultsPerQuery).Do()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]types.SearchResult, 0, len(resp.Items))
	for i, item := range resp.Items {
		results = append(results, types.SearchResult{
			Title:     item.Title,
			URL:       item.Link,
			Content:   item.Snippet,
			Relevance: rankRelevance(i),
		})
	}
	return results, nil
}

// rankRelevance converts a provider rank position into a relevance score.
// The provider's own ordering is the only signal available at this layer.
func rankRelevance(position int) float64 {
	relevance := 1.0 - float64(position)*0.1
	if relevance < 0.1 {
		relevance = 0.1
	}
	return relevance
}

// siteClause builds an OR'd site: restriction from domain hints.
func siteClause(domains []string) string {
	clauses := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			clauses = append(clauses, "site:"+d)
		}
	}
	return "(" + strings.Join(clauses, " OR ") + ")"
}
