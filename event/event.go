// Package event provides the event stream emitted by an agent run.
// Events trace the run lifecycle: iterations, phases, plan revisions
// and individual step executions.
package event

import (
	"time"

	"github.com/spetersoncode/stride"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStart fires when a run begins.
	RunStart Type = "run_start"

	// RunEnd fires when a run reaches a terminal status.
	RunEnd Type = "run_end"

	// RunError fires when an unrecoverable error ends the run.
	RunError Type = "run_error"
)

// Iteration lifecycle events
const (
	// IterationStart fires at the top of each loop iteration.
	IterationStart Type = "iteration_start"

	// IterationEnd fires once an iteration's results are merged.
	IterationEnd Type = "iteration_end"
)

// Phase events
const (
	// Perceived fires when a world state has been built.
	Perceived Type = "perceived"

	// PlanProposed fires when a plan revision comes back from decision.
	PlanProposed Type = "plan_proposed"

	// PlanValidated fires when a plan passes all validation rules.
	PlanValidated Type = "plan_validated"

	// PlanRejected fires when validation rejects a plan (contains the
	// rule failure; the plan goes back to decision).
	PlanRejected Type = "plan_rejected"

	// PhaseRetry fires when a phase attempt fails and will be retried.
	PhaseRetry Type = "phase_retry"
)

// Step execution events
const (
	// StepExecuting fires before a step's tool is invoked.
	StepExecuting Type = "step_executing"

	// StepResult fires with the outcome of one step.
	StepResult Type = "step_result"
)

// Event is one observable occurrence during a run.
type Event struct {
	// Type identifies the kind of event.
	Type Type

	// SessionID identifies the run.
	SessionID string

	// Iteration is the loop iteration (1-indexed) for iteration-scoped
	// events, 0 for run-scoped ones.
	Iteration int

	// Phase is the loop phase for phase-scoped events.
	Phase stride.Phase

	// WorldState carries the perceived state for Perceived events.
	WorldState *stride.WorldState

	// Plan carries the plan for PlanProposed/PlanValidated/PlanRejected.
	Plan *stride.Plan

	// Step carries the step for StepExecuting events.
	Step *stride.Step

	// Result carries the outcome for StepResult events.
	Result *stride.StepResult

	// Session carries the sealed session for RunEnd events.
	Session *stride.Session

	// Error holds the failure for RunError, PlanRejected and PhaseRetry.
	Error error

	// Message holds additional context, such as a rejection reason.
	Message string

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emit sends an event with a timestamp to the channel without blocking.
// Events are dropped if the consumer falls behind.
func Emit(ch chan<- Event, e Event) {
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
