package locations

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/salary-intel/internal/fetch"
	"github.com/jonathan/salary-intel/internal/types"
)

// NumbeoAdapter scrapes cost-of-living indices from Numbeo city pages.
// It is the primary source: it reports the full index set plus a
// crowd-sourced sample size.
type NumbeoAdapter struct {
	BaseURL    string
	Options    *fetch.Options
	UseBrowser bool
}

// NewNumbeoAdapter creates the adapter with production defaults.
func NewNumbeoAdapter() *NumbeoAdapter {
	return &NumbeoAdapter{
		BaseURL: "https://www.numbeo.com",
		Options: fetch.DefaultOptions(),
	}
}

// Name identifies the adapter.
func (a *NumbeoAdapter) Name() string { return "numbeo" }

var (
	numbeoColIndexRe   = regexp.MustCompile(`(?i)Cost of Living Index[^0-9]*([\d.]+)`)
	numbeoRentRe       = regexp.MustCompile(`(?i)Rent Index[^0-9]*([\d.]+)`)
	numbeoGroceriesRe  = regexp.MustCompile(`(?i)Groceries Index[^0-9]*([\d.]+)`)
	numbeoRestaurantRe = regexp.MustCompile(`(?i)Restaurant Price Index[^0-9]*([\d.]+)`)
	numbeoTransportRe  = regexp.MustCompile(`(?i)Transportation Index[^0-9]*([\d.]+)`)
	numbeoUtilitiesRe  = regexp.MustCompile(`(?i)Utilities(?: \(Monthly\))? Index[^0-9]*([\d.]+)`)
	numbeoSalaryRe     = regexp.MustCompile(`(?i)Average Monthly Net Salary[^0-9]*([\d,]+(?:\.\d+)?)`)
	numbeoEntryCountRe = regexp.MustCompile(`(?i)based on ([\d,]+) (?:entries|prices)`)
)

// Fetch retrieves and parses the city page.
func (a *NumbeoAdapter) Fetch(ctx context.Context, query types.LocationQuery) (*types.ScrapedMetricSet, error) {
	pageURL := fmt.Sprintf("%s/cost-of-living/in/%s", a.BaseURL, citySlug(query.City))

	result, err := fetch.URL(ctx, pageURL, a.Options)
	if err != nil {
		return nil, fmt.Errorf("numbeo fetch failed: %w", err)
	}

	text, err := fetch.ExtractMainText(result.HTML, fetch.CostOfLivingSelectors())
	if err != nil {
		return nil, fmt.Errorf("numbeo extract failed: %w", err)
	}

	if a.UseBrowser && fetch.ShouldUseBrowser(text) {
		browserHTML, browserErr := fetch.WithBrowser(ctx, pageURL, a.Options.Timeout, false)
		if browserErr == nil {
			if rendered, extractErr := fetch.ExtractMainText(browserHTML, fetch.CostOfLivingSelectors()); extractErr == nil {
				text = rendered
			}
		}
		// On browser failure keep the HTTP content and let parsing decide.
	}

	return a.parse(text)
}

// parse extracts the known numeric fields from page text.
func (a *NumbeoAdapter) parse(text string) (*types.ScrapedMetricSet, error) {
	metrics := &types.ScrapedMetricSet{
		CostOfLivingIndex: matchFloat(numbeoColIndexRe, text),
		RentIndex:         matchFloat(numbeoRentRe, text),
		GroceriesIndex:    matchFloat(numbeoGroceriesRe, text),
		RestaurantIndex:   matchFloat(numbeoRestaurantRe, text),
		TransportIndex:    matchFloat(numbeoTransportRe, text),
		UtilitiesIndex:    matchFloat(numbeoUtilitiesRe, text),
		Source:            "numbeo (cost-of-living data courtesy of Numbeo, numbeo.com)",
		CapturedAt:        time.Now(),
	}

	if metrics.CostOfLivingIndex <= 0 {
		return nil, fmt.Errorf("numbeo parse failed: no cost of living index in page text")
	}

	if salary := matchFloat(numbeoSalaryRe, text); salary > 0 {
		metrics.AvgNetSalaryUSD = &salary
	}
	if entries := matchFloat(numbeoEntryCountRe, text); entries > 0 {
		count := int(entries)
		metrics.DataPointCount = &count
	}

	metrics.Confidence = scoreConfidence(metrics)
	return metrics, nil
}

// citySlug converts a city name into the path form Numbeo uses:
// each word capitalized, joined with dashes.
func citySlug(city string) string {
	words := strings.Fields(strings.TrimSpace(city))
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, "-")
}

// matchFloat returns the first capture group of re as a float, or 0.
func matchFloat(re *regexp.Regexp, text string) float64 {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
