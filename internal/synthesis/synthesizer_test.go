package synthesis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/salary-intel/internal/search"
	"github.com/jonathan/salary-intel/internal/types"
)

// mockEngine returns a canned payload and records whether it was called.
type mockEngine struct {
	payload string
	err     error
	calls   int
	prompt  string
}

func (m *mockEngine) CompleteJSON(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.payload, m.err
}

func (m *mockEngine) Close() error { return nil }

const validPayload = `{
	"salary_range": {"min": 95000, "max": 140000, "median": 115000, "currency": "USD", "confidence": 0.75},
	"market_position": "at_market",
	"personalized_insights": ["Your Go background matches the core stack."],
	"recommendations": ["Target the upper half of the range."]
}`

func synthesisRequest() *types.AnalysisRequest {
	return &types.AnalysisRequest{
		SubjectID:      "job-1",
		RequesterID:    "user-1",
		JobTitle:       "Senior Software Engineer",
		Company:        "Acme Corp",
		Location:       "Austin, TX",
		JobDescription: "Own backend services end to end.",
		Requirements:   []string{"Go", "PostgreSQL"},
		Profile: types.RequesterProfile{
			CareerLevel:     "senior",
			YearsExperience: 8,
			Skills:          []string{"Go", "SQL"},
		},
	}
}

func aggregationWith(n int, relevance float64) *search.Aggregation {
	agg := &search.Aggregation{}
	for i := 0; i < n; i++ {
		agg.Results = append(agg.Results, types.SearchResult{
			Title:     "Compensation report",
			URL:       "https://evidence.example/r",
			Content:   "Reported salary bands for senior engineers in this market segment.",
			Relevance: relevance,
			Category:  types.CategorySalaryData,
		})
	}
	return agg
}

func TestSynthesize_Success(t *testing.T) {
	engine := &mockEngine{payload: validPayload}
	s := NewSynthesizer(engine)

	report, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(4, 0.8))
	require.NoError(t, err)

	assert.Equal(t, 1, engine.calls, "synthesis must be a single shot")
	assert.InDelta(t, 115000, report.SalaryRange.Median, 0.001)
	assert.InDelta(t, 0.75, report.SalaryRange.Confidence, 0.001)
	assert.Equal(t, types.PositionAtMarket, report.MarketPosition)
	assert.Len(t, report.Sources, 4)
	assert.NotEmpty(t, report.Metadata.AnalysisID)
	assert.False(t, report.Metadata.Timestamp.IsZero())
}

func TestSynthesize_PromptEmbedsContext(t *testing.T) {
	engine := &mockEngine{payload: validPayload}
	s := NewSynthesizer(engine)

	_, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(2, 0.8))
	require.NoError(t, err)

	assert.Contains(t, engine.prompt, "Senior Software Engineer")
	assert.Contains(t, engine.prompt, "Acme Corp")
	assert.Contains(t, engine.prompt, "Years of experience: 8")
	assert.Contains(t, engine.prompt, "https://evidence.example/r")
}

func TestSynthesize_NoEvidenceNeverCallsEngine(t *testing.T) {
	engine := &mockEngine{payload: validPayload}
	s := NewSynthesizer(engine)

	_, err := s.Synthesize(context.Background(), synthesisRequest(), &search.Aggregation{})

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, engine.calls, "synthesis must not be attempted without evidence")
}

func TestSynthesize_InvertedRangeRejected(t *testing.T) {
	engine := &mockEngine{payload: `{
		"salary_range": {"min": 90000, "max": 60000, "median": 75000, "confidence": 0.8},
		"market_position": "at_market"
	}`}
	s := NewSynthesizer(engine)

	_, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(3, 0.7))

	var invalid *InvalidSynthesisError
	require.ErrorAs(t, err, &invalid)
}

func TestSynthesize_NegativeBoundRejected(t *testing.T) {
	engine := &mockEngine{payload: `{
		"salary_range": {"min": -5, "max": 100000, "median": 50000},
		"market_position": "at_market"
	}`}
	s := NewSynthesizer(engine)

	_, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(3, 0.7))

	var invalid *InvalidSynthesisError
	require.ErrorAs(t, err, &invalid)
}

func TestSynthesize_NonNumericRangeRejected(t *testing.T) {
	engine := &mockEngine{payload: `{
		"salary_range": {"min": "about ninety thousand", "max": 140000, "median": 115000},
		"market_position": "at_market"
	}`}
	s := NewSynthesizer(engine)

	_, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(3, 0.7))

	var invalid *InvalidSynthesisError
	require.ErrorAs(t, err, &invalid)
}

func TestSynthesize_MissingConfidenceRecomputed(t *testing.T) {
	engine := &mockEngine{payload: `{
		"salary_range": {"min": 95000, "max": 140000, "median": 115000},
		"market_position": "at_market"
	}`}
	s := NewSynthesizer(engine)

	// 4 sources at average relevance 0.6: (4/10)*0.6 = 0.24, clamped to 0.3.
	report, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(4, 0.6))
	require.NoError(t, err)
	assert.InDelta(t, 0.3, report.SalaryRange.Confidence, 0.001)
}

func TestSynthesize_OutOfRangeConfidenceRecomputed(t *testing.T) {
	engine := &mockEngine{payload: `{
		"salary_range": {"min": 95000, "max": 140000, "median": 115000, "confidence": 3.5},
		"market_position": "at_market"
	}`}
	s := NewSynthesizer(engine)

	report, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(8, 0.75))
	require.NoError(t, err)
	// (8/10)*0.75 = 0.6
	assert.InDelta(t, 0.6, report.SalaryRange.Confidence, 0.001)
}

func TestSynthesize_MalformedJSONRejected(t *testing.T) {
	engine := &mockEngine{payload: `this is not json`}
	s := NewSynthesizer(engine)

	_, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(3, 0.7))

	var invalid *InvalidSynthesisError
	require.ErrorAs(t, err, &invalid)
}

func TestSynthesize_EngineErrorPropagates(t *testing.T) {
	boom := errors.New("model unavailable")
	engine := &mockEngine{err: boom}
	s := NewSynthesizer(engine)

	_, err := s.Synthesize(context.Background(), synthesisRequest(), aggregationWith(3, 0.7))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var invalid *InvalidSynthesisError
	assert.False(t, errors.As(err, &invalid), "an engine outage is transient, not an invalid payload")
}

func TestResolveConfidence(t *testing.T) {
	nan := math.NaN()
	valid := 0.42

	assert.InDelta(t, 0.42, resolveConfidence(&valid, 4, 0.6), 0.001)
	assert.InDelta(t, 0.3, resolveConfidence(nil, 4, 0.6), 0.001)
	assert.InDelta(t, 0.3, resolveConfidence(&nan, 4, 0.6), 0.001)
}

func TestRecomputeConfidence_Clamps(t *testing.T) {
	assert.InDelta(t, 0.3, RecomputeConfidence(1, 0.1), 0.001, "floors at 0.3")
	assert.InDelta(t, 0.9, RecomputeConfidence(50, 1.0), 0.001, "caps at 0.9")
	assert.InDelta(t, 0.56, RecomputeConfidence(7, 0.8), 0.001)
}
