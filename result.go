package stride

import (
	"fmt"
	"time"
)

// FailureKind classifies why a step execution failed.
type FailureKind string

const (
	// FailureTimeout means the invocation exceeded its wall-clock budget
	// and was cancelled.
	FailureTimeout FailureKind = "timeout"
	// FailureRejected means the invocation never ran: the arguments did not
	// conform to the tool's schema, or the tool was not permitted.
	FailureRejected FailureKind = "rejected"
	// FailureRuntime means the tool provider reported a failure while
	// running.
	FailureRuntime FailureKind = "runtime"
)

// Failure describes a failed step execution. It is a value, not an error:
// the executor reports failures inside StepResult rather than letting them
// escape to the caller.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// StepResult is the outcome of executing a single step. Exactly one of
// Output (on success) or Failure (on failure) is meaningful. Results are
// immutable once created.
type StepResult struct {
	StepIndex int           `json:"stepIndex"`
	OK        bool          `json:"ok"`
	Output    string        `json:"output,omitempty"`
	Failure   *Failure      `json:"failure,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Succeeded creates a successful result for the given step.
func Succeeded(stepIndex int, output string, d time.Duration) StepResult {
	return StepResult{StepIndex: stepIndex, OK: true, Output: output, Duration: d}
}

// Failed creates a failed result for the given step.
func Failed(stepIndex int, kind FailureKind, msg string, d time.Duration) StepResult {
	return StepResult{
		StepIndex: stepIndex,
		Failure:   &Failure{Kind: kind, Message: msg},
		Duration:  d,
	}
}
