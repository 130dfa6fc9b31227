// Package pipeline provides the high-level orchestration for salary
// intelligence analysis: cache lookup, evidence gathering, synthesis,
// and write-through caching.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/salary-intel/internal/cache"
	"github.com/jonathan/salary-intel/internal/search"
	"github.com/jonathan/salary-intel/internal/synthesis"
	"github.com/jonathan/salary-intel/internal/types"
)

// State identifies where a request currently is in its lifecycle.
type State string

const (
	StateIdle          State = "idle"
	StateCheckingCache State = "checking_cache"
	StateCachedHit     State = "cached_hit"
	StateSearching     State = "searching"
	StateSynthesizing  State = "synthesizing"
	StateValidating    State = "validating"
	StateComplete      State = "complete"
	StateFailed        State = "failed"
)

// ProgressEvent describes a state transition during analysis.
type ProgressEvent struct {
	State   State  `json:"state"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called on each state transition when configured.
type ProgressCallback func(event ProgressEvent)

// EvidenceAggregator gathers categorized search evidence for a request.
type EvidenceAggregator interface {
	Aggregate(ctx context.Context, req *types.AnalysisRequest) (*search.Aggregation, error)
}

// ReportSynthesizer turns gathered evidence into a validated report.
type ReportSynthesizer interface {
	Synthesize(ctx context.Context, req *types.AnalysisRequest, agg *search.Aggregation) (*types.AnalysisReport, error)
}

// AnalysisStore is the cache surface the orchestrator needs.
// *cache.AnalysisCache satisfies it.
type AnalysisStore interface {
	Get(ctx context.Context, subjectID, requesterID, inputHash string) (*cache.Hit, error)
	Put(ctx context.Context, subjectID, requesterID, inputHash string, report *types.AnalysisReport) error
}

// Outcome is the result of a completed analysis or cache check.
type Outcome struct {
	Report           *types.AnalysisReport
	Cached           bool
	Sources          []types.Citation
	ProcessingTimeMs int64
}

// Orchestrator runs the full analysis flow. All collaborators are
// required except OnProgress.
type Orchestrator struct {
	Cache       AnalysisStore
	Aggregator  EvidenceAggregator
	Synthesizer ReportSynthesizer
	OnProgress  ProgressCallback

	validate *validator.Validate
}

// New constructs an orchestrator around the given collaborators.
func New(store AnalysisStore, agg EvidenceAggregator, synth ReportSynthesizer) *Orchestrator {
	return &Orchestrator{
		Cache:       store,
		Aggregator:  agg,
		Synthesizer: synth,
		validate:    validator.New(),
	}
}

func (o *Orchestrator) emit(state State, format string, args ...any) {
	o.emitContent(state, nil, format, args...)
}

func (o *Orchestrator) emitContent(state State, content any, format string, args ...any) {
	if o.OnProgress != nil {
		o.OnProgress(ProgressEvent{State: state, Message: fmt.Sprintf(format, args...), Content: content})
	}
}

// Analyze runs the full flow for one request: validate, check the cache,
// gather evidence, synthesize, and write the validated report back through
// the cache. Identical requests within the cache TTL are served without
// any network or model work.
func (o *Orchestrator) Analyze(ctx context.Context, req *types.AnalysisRequest) (*Outcome, error) {
	start := time.Now()
	o.emit(StateIdle, "received analysis request for %q at %q", req.JobTitle, req.Company)

	if err := o.validate.Struct(req); err != nil {
		o.emit(StateFailed, "request validation failed: %v", err)
		return nil, &InvalidRequestError{Cause: err}
	}

	inputHash := req.InputHash()

	o.emit(StateCheckingCache, "checking cache for subject %s", req.SubjectID)
	hit, err := o.Cache.Get(ctx, req.SubjectID, req.RequesterID, inputHash)
	if err != nil {
		o.emit(StateFailed, "cache lookup failed: %v", err)
		return nil, &TransientError{Stage: "cache lookup", Cause: err}
	}
	if hit != nil {
		o.emit(StateCachedHit, "serving cached report (access count %d)", hit.AccessCount)
		return &Outcome{
			Report:           hit.Report,
			Cached:           true,
			Sources:          hit.Report.Sources,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	o.emit(StateSearching, "gathering market evidence for %q", req.JobTitle)
	agg, err := o.Aggregator.Aggregate(ctx, req)
	if err != nil {
		o.emit(StateFailed, "evidence gathering failed: %v", err)
		return nil, &TransientError{Stage: "evidence gathering", Cause: err}
	}
	if agg == nil || len(agg.Results) == 0 {
		o.emit(StateFailed, "no usable evidence found")
		return nil, &synthesis.InsufficientDataError{
			Reason: fmt.Sprintf("no usable search results for %q at %q", req.JobTitle, req.Company),
		}
	}

	o.emitContent(StateSynthesizing, agg, "synthesizing report from %d sources", len(agg.Results))
	report, err := o.Synthesizer.Synthesize(ctx, req, agg)
	if err != nil {
		o.emit(StateFailed, "synthesis failed: %v", err)
		var insufficient *synthesis.InsufficientDataError
		var invalid *synthesis.InvalidSynthesisError
		if errors.As(err, &insufficient) || errors.As(err, &invalid) {
			return nil, err
		}
		return nil, &TransientError{Stage: "synthesis", Cause: err}
	}

	o.emit(StateValidating, "report validated, writing through to cache")
	if err := o.Cache.Put(ctx, req.SubjectID, req.RequesterID, inputHash, report); err != nil {
		o.emit(StateFailed, "cache write failed: %v", err)
		return nil, &TransientError{Stage: "cache write", Cause: err}
	}

	o.emit(StateComplete, "analysis complete")
	return &Outcome{
		Report:           report,
		Cached:           false,
		Sources:          report.Sources,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// CheckCache answers whether a fresh cached report exists for the request
// without performing any search or synthesis work. A nil outcome with a nil
// error means a cache miss.
func (o *Orchestrator) CheckCache(ctx context.Context, req *types.AnalysisRequest) (*Outcome, error) {
	start := time.Now()

	if err := o.validate.Struct(req); err != nil {
		return nil, &InvalidRequestError{Cause: err}
	}

	o.emit(StateCheckingCache, "cache-only check for subject %s", req.SubjectID)
	hit, err := o.Cache.Get(ctx, req.SubjectID, req.RequesterID, req.InputHash())
	if err != nil {
		return nil, &TransientError{Stage: "cache lookup", Cause: err}
	}
	if hit == nil {
		return nil, nil
	}
	return &Outcome{
		Report:           hit.Report,
		Cached:           true,
		Sources:          hit.Report.Sources,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}
