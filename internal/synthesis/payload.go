package synthesis

import (
	_ "embed"
	"encoding/json"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/salary-intel/internal/types"
)

//go:embed payload_schema.json
var payloadSchemaJSON []byte

// payload is the structured output expected from the synthesis engine.
// Confidence is a pointer so a missing value is distinguishable from zero.
type payload struct {
	SalaryRange struct {
		Min        float64  `json:"min"`
		Max        float64  `json:"max"`
		Median     float64  `json:"median"`
		Currency   string   `json:"currency"`
		Confidence *float64 `json:"confidence"`
	} `json:"salary_range"`
	MarketPosition       string   `json:"market_position"`
	PersonalizedInsights []string `json:"personalized_insights"`
	Recommendations      []string `json:"recommendations"`
}

// parsePayload validates the raw engine output against the embedded JSON
// schema and decodes it. Structural failures are InvalidSynthesisError:
// a payload we cannot trust structurally cannot be trusted numerically.
func parsePayload(raw string) (*payload, error) {
	docLoader := gojsonschema.NewStringLoader(raw)
	schemaLoader := gojsonschema.NewBytesLoader(payloadSchemaJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, &InvalidSynthesisError{Reason: "payload is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, &InvalidSynthesisError{Reason: "payload failed schema validation: " + strings.Join(msgs, "; ")}
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, &InvalidSynthesisError{Reason: "payload decode failed", Cause: err}
	}
	return &p, nil
}

// validateRange applies the hard numeric gate. Range defects are fatal;
// nothing here clamps or substitutes a value.
func validateRange(p *payload) error {
	rng := types.SalaryRange{
		Min:    p.SalaryRange.Min,
		Max:    p.SalaryRange.Max,
		Median: p.SalaryRange.Median,
	}
	if err := rng.Validate(); err != nil {
		return &InvalidSynthesisError{Reason: "salary range rejected", Cause: err}
	}
	return nil
}

// resolveConfidence returns a usable confidence for the report. A reported
// value in [0,1] is kept. Anything else (missing, NaN, out of range) is
// recomputed deterministically from the aggregator's own result set. This
// is the one permitted numeric substitution in the pipeline: it replaces a
// self-reported heuristic with a locally computed one, not a fabricated
// market figure.
func resolveConfidence(reported *float64, sourceCount int, averageRelevance float64) float64 {
	if reported != nil && !math.IsNaN(*reported) && *reported >= 0 && *reported <= 1 {
		return *reported
	}
	return RecomputeConfidence(sourceCount, averageRelevance)
}

// RecomputeConfidence derives confidence from evidence volume and quality:
// clamp(0.3, 0.9, (sourceCount/10) * averageRelevance).
func RecomputeConfidence(sourceCount int, averageRelevance float64) float64 {
	value := (float64(sourceCount) / 10.0) * averageRelevance
	if value < 0.3 {
		return 0.3
	}
	if value > 0.9 {
		return 0.9
	}
	return value
}

// currencyOrDefault fills the currency only when the engine omitted it.
// A currency code is a label, not a market figure, so a default is safe.
func currencyOrDefault(currency string) string {
	if c := strings.TrimSpace(currency); c != "" {
		return c
	}
	return "USD"
}
