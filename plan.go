package stride

import "encoding/json"

// StepStatus tracks a step through the validation and execution pipeline.
type StepStatus string

const (
	// StepPending means the decision engine proposed the step.
	StepPending StepStatus = "pending"
	// StepValidated means the heuristic validator passed the step.
	StepValidated StepStatus = "validated"
	// StepExecuting means the step has been handed to the executor.
	StepExecuting StepStatus = "executing"
	// StepDone means the step executed successfully.
	StepDone StepStatus = "done"
	// StepError means the step executed and failed.
	StepError StepStatus = "error"
)

// Step is a single tool invocation request within a plan.
type Step struct {
	// Index is the step's global position across all plan revisions of a
	// session.
	Index int `json:"index"`

	// Description is the model's short statement of what the step does.
	Description string `json:"description,omitempty"`

	// Tool names the tool to invoke.
	Tool string `json:"tool"`

	// Args are the tool input arguments. They must conform to the tool's
	// declared schema before the step reaches the executor.
	Args map[string]any `json:"args"`

	// Status is updated only by the agent loop (and, for the
	// pending→validated transition, by the validator).
	Status StepStatus `json:"status"`

	// Attempts counts how many times the step has been handed to the
	// executor, including retries after replanning.
	Attempts int `json:"attempts,omitempty"`
}

// Plan is an ordered sequence of steps produced by the decision engine.
// Each decision produces a new Plan value; prior revisions are never
// mutated in place, so components may hold references without aliasing
// concerns.
type Plan struct {
	// Revision counts decisions within a session, starting at 1.
	Revision int `json:"revision"`

	Steps []Step `json:"steps"`

	// Complete is the explicit terminal marker: the decision engine sets it
	// when the goal is satisfied and no further steps are needed. A plan
	// with Complete unset must contain at least one pending step.
	Complete bool `json:"complete,omitempty"`

	// FinalAnswer carries the answer when Complete is set.
	FinalAnswer string `json:"finalAnswer,omitempty"`
}

// Pending returns the indices (into Steps) of steps still awaiting
// validation or execution.
func (p *Plan) Pending() []int {
	var idx []int
	for i, s := range p.Steps {
		if s.Status == StepPending || s.Status == StepValidated {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clone returns a deep copy of the plan, including argument maps. The
// decision engine revises plans by cloning the prior revision rather than
// mutating it.
func (p *Plan) Clone() Plan {
	out := Plan{
		Revision:    p.Revision,
		Complete:    p.Complete,
		FinalAnswer: p.FinalAnswer,
		Steps:       make([]Step, len(p.Steps)),
	}
	for i, s := range p.Steps {
		cs := s
		if s.Args != nil {
			cs.Args = make(map[string]any, len(s.Args))
			for k, v := range s.Args {
				cs.Args[k] = v
			}
		}
		out.Steps[i] = cs
	}
	return out
}

// Fingerprint returns a canonical encoding of the plan's unfinished work:
// the tool and arguments of every step that is not yet done. Two plans
// with equal fingerprints represent no progress between decisions.
func (p *Plan) Fingerprint() string {
	type entry struct {
		Tool string         `json:"tool"`
		Args map[string]any `json:"args"`
	}
	var entries []entry
	for _, s := range p.Steps {
		if s.Status == StepDone {
			continue
		}
		entries = append(entries, entry{Tool: s.Tool, Args: s.Args})
	}
	if p.Complete {
		return "complete"
	}
	// json.Marshal sorts map keys, giving a stable encoding.
	b, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return string(b)
}
