package synthesis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/salary-intel/internal/llm"
	"github.com/jonathan/salary-intel/internal/prompts"
	"github.com/jonathan/salary-intel/internal/search"
	"github.com/jonathan/salary-intel/internal/types"
)

// maxEvidenceResults bounds how many excerpts go into the prompt.
const maxEvidenceResults = 12

// maxExcerptLength truncates long result content in the prompt.
const maxExcerptLength = 300

// Synthesizer produces validated analysis reports from aggregated evidence.
type Synthesizer struct {
	client llm.Client
}

// NewSynthesizer creates a synthesizer using the given completion client.
func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client}
}

// Synthesize builds one prompt, invokes the engine exactly once, and
// validates the payload before trusting it. Returns InsufficientDataError
// without touching the engine when there is no surviving evidence, and
// InvalidSynthesisError when the payload fails the numeric gate.
func (s *Synthesizer) Synthesize(ctx context.Context, req *types.AnalysisRequest, agg *search.Aggregation) (*types.AnalysisReport, error) {
	if agg == nil || len(agg.Results) == 0 {
		return nil, &InsufficientDataError{
			Reason: "no search result survived quality filtering",
		}
	}

	started := time.Now()

	raw, err := s.client.CompleteJSON(ctx, buildPrompt(req, agg))
	if err != nil {
		return nil, fmt.Errorf("synthesis call failed: %w", err)
	}

	p, err := parsePayload(raw)
	if err != nil {
		return nil, err
	}
	if err := validateRange(p); err != nil {
		return nil, err
	}

	confidence := resolveConfidence(p.SalaryRange.Confidence, len(agg.Results), agg.AverageRelevance())

	citations := make([]types.Citation, 0, len(agg.Results))
	for _, r := range agg.Results {
		citations = append(citations, r.ToCitation())
	}

	report := &types.AnalysisReport{
		SalaryRange: types.SalaryRange{
			Min:        p.SalaryRange.Min,
			Max:        p.SalaryRange.Max,
			Median:     p.SalaryRange.Median,
			Currency:   currencyOrDefault(p.SalaryRange.Currency),
			Confidence: confidence,
		},
		MarketPosition:       types.MarketPosition(p.MarketPosition),
		PersonalizedInsights: p.PersonalizedInsights,
		Recommendations:      p.Recommendations,
		Sources:              citations,
		Metadata: types.ReportMetadata{
			AnalysisID:       uuid.New().String(),
			Timestamp:        time.Now(),
			ProcessingTimeMs: time.Since(started).Milliseconds(),
		},
	}

	if err := report.Validate(); err != nil {
		return nil, &InvalidSynthesisError{Reason: "report failed final validation", Cause: err}
	}
	return report, nil
}

// buildPrompt embeds the requester profile summary, job fields, and
// evidence excerpts into the synthesis template.
func buildPrompt(req *types.AnalysisRequest, agg *search.Aggregation) string {
	template := prompts.MustGet("analysis.json", "salary-report")
	return prompts.Format(template, map[string]string{
		"JobTitle":       req.JobTitle,
		"Company":        req.Company,
		"Location":       orUnspecified(req.Location),
		"PostedSalary":   orUnspecified(req.PostedSalary),
		"Requirements":   orUnspecified(strings.Join(req.Requirements, "; ")),
		"JobDescription": truncate(req.JobDescription, 2000),
		"ProfileSummary": profileSummary(&req.Profile),
		"Evidence":       evidenceBlock(agg),
	})
}

// profileSummary renders the requester profile as prompt-friendly lines.
func profileSummary(p *types.RequesterProfile) string {
	var sb strings.Builder
	if p.CareerLevel != "" {
		fmt.Fprintf(&sb, "Career level: %s\n", p.CareerLevel)
	}
	if p.YearsExperience > 0 {
		fmt.Fprintf(&sb, "Years of experience: %d\n", p.YearsExperience)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&sb, "Skills: %s\n", strings.Join(p.Skills, ", "))
	}
	if p.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", p.Location)
	}
	if p.CurrentSalary != nil {
		fmt.Fprintf(&sb, "Current salary: %.0f\n", *p.CurrentSalary)
	}
	if p.ExpectedSalary != nil {
		fmt.Fprintf(&sb, "Expected salary: %.0f\n", *p.ExpectedSalary)
	}
	if p.WorkModePref != "" {
		fmt.Fprintf(&sb, "Work mode preference: %s\n", p.WorkModePref)
	}
	if sb.Len() == 0 {
		return "No profile details provided.\n"
	}
	return sb.String()
}

// evidenceBlock renders the surviving search results as numbered excerpts.
func evidenceBlock(agg *search.Aggregation) string {
	var sb strings.Builder
	count := 0
	for _, r := range agg.Results {
		if count >= maxEvidenceResults {
			break
		}
		count++
		fmt.Fprintf(&sb, "%d. [%s] %s (%s)\n   %s\n", count, r.Category, r.Title, r.URL, truncate(r.Content, maxExcerptLength))
	}
	return sb.String()
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not specified"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
