// Package validate applies deterministic safety and sanity rules to a
// proposed plan before any step reaches the executor.
//
// The rules run in a fixed order: per-step schema conformance, the
// disallowed-tool denylist, the pending-step ceiling, and cross-step
// exclusive-resource conflicts. The first failing rule short-circuits with
// a *RuleError naming the rule and the offending step; the agent loop
// feeds that error back to the decision engine instead of executing.
package validate

import (
	"fmt"

	"github.com/spetersoncode/stride"
	"github.com/spetersoncode/stride/internal/conform"
)

// DefaultMaxPendingSteps bounds how many unexecuted steps a single plan
// revision may carry.
const DefaultMaxPendingSteps = 5

// Resolver looks up tool descriptors. *tool.Registry implements it.
type Resolver interface {
	Resolve(name string) (stride.ToolDescriptor, error)
}

// Config tunes the rule set.
type Config struct {
	// Denylist names tools that must never execute.
	Denylist []string

	// MaxPendingSteps caps pending steps per plan revision. Zero means
	// DefaultMaxPendingSteps.
	MaxPendingSteps int

	// ExclusiveResources maps a resource name to the tools that claim it
	// exclusively. Two pending steps claiming the same resource in one
	// plan revision are rejected.
	ExclusiveResources map[string][]string
}

// RuleError reports the first rule violation found in a plan. StepIndex is
// the offending step's index, or -1 for plan-level violations.
type RuleError struct {
	Rule      string
	StepIndex int
	Reason    string
}

func (e *RuleError) Error() string {
	if e.StepIndex < 0 {
		return fmt.Sprintf("validate: rule %s rejected plan: %s", e.Rule, e.Reason)
	}
	return fmt.Sprintf("validate: rule %s rejected step %d: %s", e.Rule, e.StepIndex, e.Reason)
}

// Category returns stride.ErrorTransient: a rejection is fed back to the
// decision engine for a bounded number of replan attempts.
func (e *RuleError) Category() stride.ErrorCategory { return stride.ErrorTransient }

// Retryable returns true.
func (e *RuleError) Retryable() bool { return true }

// Validator checks plans against the configured rule set. It is stateless
// and safe for concurrent use.
type Validator struct {
	resolver Resolver
	cfg      Config
}

// New creates a validator resolving descriptors through the given resolver.
func New(resolver Resolver, cfg Config) *Validator {
	if cfg.MaxPendingSteps <= 0 {
		cfg.MaxPendingSteps = DefaultMaxPendingSteps
	}
	return &Validator{resolver: resolver, cfg: cfg}
}

// Validate applies the rules to the plan's pending steps. On success it
// returns a copy of the plan with every pending step marked validated.
// Validation is deterministic and idempotent: re-validating an unchanged,
// already-validated plan yields an identical plan.
func (v *Validator) Validate(plan stride.Plan) (stride.Plan, error) {
	pending := plan.Pending()

	if err := v.checkSchemas(&plan, pending); err != nil {
		return stride.Plan{}, err
	}
	if err := v.checkDenylist(&plan, pending); err != nil {
		return stride.Plan{}, err
	}
	if err := v.checkStepCeiling(pending); err != nil {
		return stride.Plan{}, err
	}
	if err := v.checkExclusiveResources(&plan, pending); err != nil {
		return stride.Plan{}, err
	}

	validated := plan.Clone()
	for _, i := range pending {
		validated.Steps[i].Status = stride.StepValidated
	}
	return validated, nil
}

func (v *Validator) checkSchemas(plan *stride.Plan, pending []int) error {
	for _, i := range pending {
		step := plan.Steps[i]
		desc, err := v.resolver.Resolve(step.Tool)
		if err != nil {
			return &RuleError{
				Rule:      "schema_conformance",
				StepIndex: step.Index,
				Reason:    err.Error(),
			}
		}
		if err := conform.Arguments(desc.InputSchema, step.Args); err != nil {
			return &RuleError{
				Rule:      "schema_conformance",
				StepIndex: step.Index,
				Reason:    fmt.Sprintf("tool %s: %v", step.Tool, err),
			}
		}
	}
	return nil
}

func (v *Validator) checkDenylist(plan *stride.Plan, pending []int) error {
	for _, i := range pending {
		step := plan.Steps[i]
		for _, denied := range v.cfg.Denylist {
			if step.Tool == denied {
				return &RuleError{
					Rule:      "denylist",
					StepIndex: step.Index,
					Reason:    fmt.Sprintf("tool %s is disallowed", step.Tool),
				}
			}
		}
	}
	return nil
}

func (v *Validator) checkStepCeiling(pending []int) error {
	if len(pending) > v.cfg.MaxPendingSteps {
		return &RuleError{
			Rule:      "max_steps",
			StepIndex: -1,
			Reason:    fmt.Sprintf("%d pending steps exceed the ceiling of %d", len(pending), v.cfg.MaxPendingSteps),
		}
	}
	return nil
}

func (v *Validator) checkExclusiveResources(plan *stride.Plan, pending []int) error {
	for resource, holders := range v.cfg.ExclusiveResources {
		holderSet := make(map[string]bool, len(holders))
		for _, h := range holders {
			holderSet[h] = true
		}

		first := -1
		for _, i := range pending {
			step := plan.Steps[i]
			if !holderSet[step.Tool] {
				continue
			}
			if first >= 0 {
				return &RuleError{
					Rule:      "exclusive_resources",
					StepIndex: step.Index,
					Reason: fmt.Sprintf("steps %d and %d both claim exclusive resource %s",
						plan.Steps[first].Index, step.Index, resource),
				}
			}
			first = i
		}
	}
	return nil
}
