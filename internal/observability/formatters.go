// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/salary-intel/internal/search"
	"github.com/jonathan/salary-intel/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintReport outputs a human-readable summary of a synthesized analysis report.
func (p *Printer) PrintReport(report *types.AnalysisReport) {
	if report == nil {
		return
	}

	var sb strings.Builder

	r := report.SalaryRange
	sb.WriteString(fmt.Sprintf("Range:      %s %.0f - %.0f\n", r.Currency, r.Min, r.Max))
	sb.WriteString(fmt.Sprintf("Median:     %s %.0f\n", r.Currency, r.Median))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", r.Confidence))
	if report.MarketPosition != "" {
		sb.WriteString(fmt.Sprintf("Position:   %s\n", report.MarketPosition))
	}

	if len(report.PersonalizedInsights) > 0 {
		sb.WriteString("\nInsights:\n")
		count := min(len(report.PersonalizedInsights), maxItemsToShow)
		for i := 0; i < count; i++ {
			insight := report.PersonalizedInsights[i]
			if len(insight) > 50 {
				insight = insight[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", insight))
		}
		if len(report.PersonalizedInsights) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.PersonalizedInsights)-maxItemsToShow))
		}
	}

	if len(report.Recommendations) > 0 {
		sb.WriteString("\nRecommendations:\n")
		count := min(len(report.Recommendations), 3)
		for i := 0; i < count; i++ {
			rec := report.Recommendations[i]
			if len(rec) > 50 {
				rec = rec[:47] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", rec))
		}
		if len(report.Recommendations) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Recommendations)-3))
		}
	}

	sb.WriteString(fmt.Sprintf("\nSources: %d cited", len(report.Sources)))

	p.printBox("SALARY ANALYSIS REPORT", sb.String())
}

// PrintEvidence outputs a summary of the gathered search evidence.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvidence(agg *search.Aggregation) {
	if agg == nil || len(agg.Results) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO EVIDENCE GATHERED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total results: %d\n", len(agg.Results)))

	for _, cat := range []types.SourceCategory{types.CategorySalaryData, types.CategoryCompanyInfo, types.CategoryMarketTrends} {
		if n := agg.CountByCategory(cat); n > 0 {
			sb.WriteString(fmt.Sprintf("  %-14s %d\n", string(cat)+":", n))
		}
	}
	sb.WriteString(fmt.Sprintf("Avg relevance: %.2f\n\n", agg.AverageRelevance()))

	count := min(len(agg.Results), maxItemsToShow)
	for i := 0; i < count; i++ {
		res := agg.Results[i]
		title := res.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, title))
		sb.WriteString(fmt.Sprintf("    %.2f  %s\n", res.Relevance, res.Category))
	}

	if len(agg.Results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more results", len(agg.Results)-maxItemsToShow))
	}

	p.printBox("GATHERED EVIDENCE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLocationMetrics outputs resolved cost-of-living metrics for a location.
func (p *Printer) PrintLocationMetrics(query types.LocationQuery, metrics *types.ScrapedMetricSet) {
	if metrics == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Location:   %s\n", query.Key()))
	sb.WriteString(fmt.Sprintf("Source:     %s\n", metrics.Source))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", metrics.Confidence))
	sb.WriteString(fmt.Sprintf("Captured:   %s\n\n", metrics.CapturedAt.Format("2006-01-02")))

	sb.WriteString(fmt.Sprintf("Cost of Living Index: %.1f\n", metrics.CostOfLivingIndex))
	if metrics.RentIndex > 0 {
		sb.WriteString(fmt.Sprintf("Rent Index:           %.1f\n", metrics.RentIndex))
	}
	if metrics.GroceriesIndex > 0 {
		sb.WriteString(fmt.Sprintf("Groceries Index:      %.1f\n", metrics.GroceriesIndex))
	}
	if metrics.AvgNetSalaryUSD != nil {
		sb.WriteString(fmt.Sprintf("Avg Net Salary (USD): %.0f\n", *metrics.AvgNetSalaryUSD))
	}
	if metrics.DataPointCount != nil {
		sb.WriteString(fmt.Sprintf("Data points:          %d\n", *metrics.DataPointCount))
	}

	p.printBox("LOCATION METRICS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCacheHit outputs a short notice that a cached report was served.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCacheHit(accessCount int64) {
	fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("CACHE HIT (served %d times)", accessCount))
	fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
}
