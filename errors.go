package stride

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by how the agent loop should handle them.
type ErrorCategory string

const (
	// ErrorTransient indicates the failing phase can be retried within the
	// loop's bounded retry budget. Examples: malformed model output,
	// temporary LLM unavailability.
	ErrorTransient ErrorCategory = "transient"

	// ErrorFatal indicates the session cannot make progress and must
	// terminate. Examples: a stalled plan, exhausted retry budget.
	ErrorFatal ErrorCategory = "fatal"
)

// CategorizedError is an error that carries handling information.
type CategorizedError interface {
	error
	Category() ErrorCategory
	// Retryable returns true if Category is ErrorTransient.
	Retryable() bool
}

// IsTransient returns true if the error or any wrapped error is categorized
// as transient. Uncategorized errors are treated as fatal.
func IsTransient(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorTransient
	}
	return false
}

// IsFatal returns true if the error or any wrapped error is categorized as
// fatal.
func IsFatal(err error) bool {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ErrorFatal
	}
	return false
}

// ParseError indicates the model's response could not be structurally
// parsed by a phase engine. It is transient: the loop retries the phase up
// to its bounded count.
type ParseError struct {
	// Phase names the engine that failed to parse ("perception" or
	// "decision").
	Phase Phase
	// Raw is the model output that failed to parse, for diagnostics.
	Raw string
	// Err is the underlying decode error.
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed model output: %v", e.Phase, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Category returns ErrorTransient; parse failures are retried.
func (e *ParseError) Category() ErrorCategory { return ErrorTransient }

// Retryable returns true.
func (e *ParseError) Retryable() bool { return true }
