// Package synthesis turns filtered search evidence and requester context
// into a validated analysis report via a single completion call.
package synthesis

import "fmt"

// InsufficientDataError means no evidence cleared quality filtering, so no
// trustworthy report can be produced. It is durable: retrying immediately
// will not help. The pipeline never papers over it with invented numbers.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.Reason)
}

// InvalidSynthesisError means the synthesis payload failed a hard numeric
// invariant. Range defects are never clamped or guessed around; the report
// is rejected outright.
type InvalidSynthesisError struct {
	Reason string
	Cause  error
}

func (e *InvalidSynthesisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid synthesis: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid synthesis: %s", e.Reason)
}

func (e *InvalidSynthesisError) Unwrap() error {
	return e.Cause
}
