package types

import (
	"net/url"
	"strings"
)

// SourceCategory classifies which research angle produced a search result.
type SourceCategory string

// Source category constants define the three research angles.
const (
	CategorySalaryData   SourceCategory = "salary_data"
	CategoryCompanyInfo  SourceCategory = "company_info"
	CategoryMarketTrends SourceCategory = "market_trends"
)

// SearchResult is one piece of external evidence gathered during research.
type SearchResult struct {
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Content   string         `json:"content"`
	Relevance float64        `json:"relevance"`
	Category  SourceCategory `json:"category"`
}

// HasValidURL reports whether the result's URL is a well-formed absolute
// http(s) URL. Results failing this check must never be cited.
func (r *SearchResult) HasValidURL() bool {
	if r.URL == "" {
		return false
	}
	parsed, err := url.Parse(r.URL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}

// Citation is a reference to an external source embedded in a report.
type Citation struct {
	Title    string         `json:"title"`
	URL      string         `json:"url"`
	Category SourceCategory `json:"category"`
}

// ToCitation converts a search result into a report citation.
func (r *SearchResult) ToCitation() Citation {
	return Citation{
		Title:    strings.TrimSpace(r.Title),
		URL:      r.URL,
		Category: r.Category,
	}
}
