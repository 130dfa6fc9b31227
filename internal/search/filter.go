package search

import (
	"math"
	"strings"

	"github.com/jonathan/salary-intel/internal/types"
)

// minContentLength is the shortest excerpt accepted as sourced text.
const minContentLength = 30

// placeholderMarkers are phrases that indicate a provider substituted
// generated or boilerplate text for a real search miss.
var placeholderMarkers = []string{
	"lorem ipsum",
	"no results found",
	"example content",
	"sample text",
	"placeholder",
	"content unavailable",
	"as an ai",
	"i cannot provide",
	"i don't have access",
}

// FilterResults applies the defensive quality filter: results without a
// well-formed absolute http(s) URL are dropped, as is anything whose
// content looks like a generic placeholder rather than sourced text.
func FilterResults(results []types.SearchResult) []types.SearchResult {
	filtered := make([]types.SearchResult, 0, len(results))
	for _, r := range results {
		if !r.HasValidURL() {
			continue
		}
		if looksLikePlaceholder(r.Content) {
			continue
		}
		if math.IsNaN(r.Relevance) || r.Relevance < 0 {
			r.Relevance = 0
		}
		if r.Relevance > 1 {
			r.Relevance = 1
		}
		filtered = append(filtered, r)
	}
	return filtered
}

// looksLikePlaceholder guards against an upstream provider silently
// substituting invented text for a real search miss.
func looksLikePlaceholder(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minContentLength {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
