package pipeline

import (
	"errors"
	"fmt"

	"github.com/jonathan/salary-intel/internal/synthesis"
)

// TransientError wraps infrastructure failures (search transport, database,
// model availability) that a caller may reasonably retry later. Durable
// failures keep their own types and are never wrapped in TransientError.
type TransientError struct {
	Stage string
	Cause error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure during %s: %v", e.Stage, e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// InvalidRequestError indicates the request failed field validation before
// any work was attempted.
type InvalidRequestError struct {
	Cause error
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid analysis request: %v", e.Cause)
}

func (e *InvalidRequestError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err represents a retryable infrastructure
// failure rather than a durable outcome.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsInsufficientData reports whether err means the evidence base was too
// thin to produce a report. Retrying with the same inputs will not help
// until more sources become available.
func IsInsufficientData(err error) bool {
	var ie *synthesis.InsufficientDataError
	return errors.As(err, &ie)
}

// IsInvalidSynthesis reports whether the model produced output that failed
// the numeric sanity gates.
func IsInvalidSynthesis(err error) bool {
	var ve *synthesis.InvalidSynthesisError
	return errors.As(err, &ve)
}
