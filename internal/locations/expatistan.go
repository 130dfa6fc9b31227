package locations

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/salary-intel/internal/fetch"
	"github.com/jonathan/salary-intel/internal/types"
)

// ExpatistanAdapter scrapes Expatistan city pages. It is the secondary
// source: the site reports a single price index plus category breakdowns,
// so its results naturally score lower confidence than the primary source.
type ExpatistanAdapter struct {
	BaseURL    string
	Options    *fetch.Options
	UseBrowser bool
}

// NewExpatistanAdapter creates the adapter with production defaults.
func NewExpatistanAdapter() *ExpatistanAdapter {
	return &ExpatistanAdapter{
		BaseURL: "https://www.expatistan.com",
		Options: fetch.DefaultOptions(),
	}
}

// Name identifies the adapter.
func (a *ExpatistanAdapter) Name() string { return "expatistan" }

var (
	expatPriceIndexRe = regexp.MustCompile(`(?i)Price Index[^0-9]*([\d.]+)`)
	expatHousingRe    = regexp.MustCompile(`(?i)Housing[^0-9]*([\d.]+)`)
	expatFoodRe       = regexp.MustCompile(`(?i)Food[^0-9]*([\d.]+)`)
	expatTransportRe  = regexp.MustCompile(`(?i)Transportation[^0-9]*([\d.]+)`)
	expatUtilitiesRe  = regexp.MustCompile(`(?i)Utilities[^0-9]*([\d.]+)`)
	expatPricesRe     = regexp.MustCompile(`(?i)([\d,]+) prices? (?:entered|collected)`)
)

// Fetch retrieves and parses the city page.
func (a *ExpatistanAdapter) Fetch(ctx context.Context, query types.LocationQuery) (*types.ScrapedMetricSet, error) {
	pageURL := fmt.Sprintf("%s/cost-of-living/%s", a.BaseURL, expatSlug(query.City))

	result, err := fetch.URL(ctx, pageURL, a.Options)
	if err != nil {
		return nil, fmt.Errorf("expatistan fetch failed: %w", err)
	}

	text, err := fetch.ExtractMainText(result.HTML, fetch.CostOfLivingSelectors())
	if err != nil {
		return nil, fmt.Errorf("expatistan extract failed: %w", err)
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

func (a *ExpatistanAdapter) parse(text string) (*types.ScrapedMetricSet, error) {
	metrics := &types.ScrapedMetricSet{
		CostOfLivingIndex: matchFloat(expatPriceIndexRe, text),
		RentIndex:         matchFloat(expatHousingRe, text),
		GroceriesIndex:    matchFloat(expatFoodRe, text),
		TransportIndex:    matchFloat(expatTransportRe, text),
		UtilitiesIndex:    matchFloat(expatUtilitiesRe, text),
		Source:            "expatistan (price data courtesy of Expatistan, expatistan.com)",
		CapturedAt:        time.Now(),
	}

	if metrics.CostOfLivingIndex <= 0 {
		return nil, fmt.Errorf("expatistan parse failed: no price index in page text")
	}

	if prices := matchFloat(expatPricesRe, text); prices > 0 {
		count := int(prices)
		metrics.DataPointCount = &count
	}

	metrics.Confidence = scoreConfidence(metrics)
	return metrics, nil
}

// expatSlug converts a city name into the lower-dash path form the site uses.
func expatSlug(city string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(city))), "-")
}
