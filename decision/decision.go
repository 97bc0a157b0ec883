// Package decision produces and revises execution plans via one LLM call
// per pass, guided by the world state, the prior plan, memory context, and
// a planning strategy.
//
// The terminal signal is an explicit marker: a decision that sets the
// plan's Complete flag (with a final answer) ends the session. An empty
// pending-step list without the marker is treated as malformed output.
package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spetersoncode/stride"
	"github.com/spetersoncode/stride/internal/modeljson"
	"github.com/spetersoncode/stride/llm"
)

// Strategy is the planning policy passed through from configuration.
type Strategy string

const (
	// StrategyDirect plans the shortest path to the goal.
	StrategyDirect Strategy = "direct"
	// StrategyExploratory favors information-gathering steps before
	// committing to a path.
	StrategyExploratory Strategy = "exploratory"
)

// stallLimit is how many consecutive identical plans count as no progress.
const stallLimit = 3

const systemPrompt = `You are the decision stage of a task-execution agent.
Given the goal, the current world state, the prior plan, and the available
tools, respond with a single JSON object:
{
  "complete": false,
  "finalAnswer": "",
  "steps": [
    {"description": "...", "tool": "tool_name", "args": {...}}
  ]
}
Set complete to true with a finalAnswer when the goal is satisfied; no
steps are needed then. Otherwise propose at least one step using only the
listed tools, with arguments conforming to each tool's schema.`

// Input carries everything one decision pass needs.
type Input struct {
	// Query is the session's original user goal.
	Query string

	// WorldState is the current perception snapshot.
	WorldState *stride.WorldState

	// PriorPlan is the previous revision, nil on the first decision.
	PriorPlan *stride.Plan

	// Strategy selects the planning policy.
	Strategy Strategy

	// Memory holds retrieved records from past sessions, most relevant
	// first.
	Memory []stride.MemoryRecord

	// Feedback carries the validator's rejection from the previous
	// attempt, empty otherwise.
	Feedback string

	// Tools is the catalog of available tools.
	Tools []stride.ToolDescriptor
}

// ErrPlanStalled indicates consecutive decisions produced identical plans
// with no progress. It is fatal: the loop terminates the session rather
// than spin.
type ErrPlanStalled struct {
	Repeats int
}

func (e *ErrPlanStalled) Error() string {
	return fmt.Sprintf("decision: plan unchanged across %d consecutive decisions", e.Repeats)
}

// Category returns stride.ErrorFatal.
func (e *ErrPlanStalled) Category() stride.ErrorCategory { return stride.ErrorFatal }

// Retryable returns false.
func (e *ErrPlanStalled) Retryable() bool { return false }

// Engine produces plan revisions. It tracks plan fingerprints across calls
// to detect stalls, so one Engine serves exactly one session run and is
// not safe for concurrent use.
type Engine struct {
	client   llm.Client
	lastFP   string
	fpStreak int
}

// New creates a decision engine on the given LLM client.
func New(client llm.Client) *Engine {
	return &Engine{client: client}
}

// Decide invokes the model once and parses its response into the next plan
// revision. Completed steps of the prior plan are carried over by copy;
// the prior revision itself is never mutated.
//
// Errors: *stride.ParseError for unparsable or structurally invalid output
// (retryable), *ErrPlanStalled when stallLimit consecutive decisions
// yield an identical plan (fatal). LLM transport failures pass through.
func (e *Engine) Decide(ctx context.Context, in Input) (stride.Plan, error) {
	raw, err := e.client.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: buildPrompt(in),
	})
	if err != nil {
		return stride.Plan{}, err
	}

	plan, err := e.parsePlan(raw, in.PriorPlan)
	if err != nil {
		return stride.Plan{}, err
	}

	fp := plan.Fingerprint()
	if fp == e.lastFP {
		e.fpStreak++
	} else {
		e.lastFP = fp
		e.fpStreak = 1
	}
	if e.fpStreak >= stallLimit {
		return stride.Plan{}, &ErrPlanStalled{Repeats: e.fpStreak}
	}

	return plan, nil
}

func buildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", in.Query)
	fmt.Fprintf(&b, "Strategy: %s\n", in.Strategy)

	if in.WorldState != nil {
		ws, _ := json.Marshal(in.WorldState)
		fmt.Fprintf(&b, "World state: %s\n", ws)
	}

	if in.PriorPlan != nil {
		prior, _ := json.Marshal(in.PriorPlan)
		fmt.Fprintf(&b, "Prior plan: %s\n", prior)
	}

	if in.Feedback != "" {
		fmt.Fprintf(&b, "The previous plan was rejected: %s\nPropose a corrected plan.\n", in.Feedback)
	}

	if len(in.Memory) > 0 {
		b.WriteString("Similar past sessions:\n")
		for _, rec := range in.Memory {
			fmt.Fprintf(&b, "- query: %q outcome: %s answer: %q\n", rec.Query, rec.Status, rec.FinalAnswer)
		}
	}

	b.WriteString("Available tools:\n")
	for _, t := range in.Tools {
		fmt.Fprintf(&b, "- %s: %s schema: %s\n", t.Name, t.Description, t.InputSchema)
	}
	return b.String()
}

// wirePlan mirrors the decision response shape.
type wirePlan struct {
	Complete    bool       `json:"complete"`
	FinalAnswer string     `json:"finalAnswer"`
	Steps       []wireStep `json:"steps"`
}

type wireStep struct {
	Description string         `json:"description"`
	Tool        string         `json:"tool"`
	Args        map[string]any `json:"args"`
}

func (e *Engine) parsePlan(raw string, prior *stride.Plan) (stride.Plan, error) {
	doc, err := modeljson.Extract(raw)
	if err != nil {
		return stride.Plan{}, &stride.ParseError{Phase: stride.PhaseDeciding, Raw: raw, Err: err}
	}

	var wire wirePlan
	if err := json.Unmarshal(doc, &wire); err != nil {
		return stride.Plan{}, &stride.ParseError{Phase: stride.PhaseDeciding, Raw: raw, Err: err}
	}

	plan := stride.Plan{
		Revision:    1,
		Complete:    wire.Complete,
		FinalAnswer: wire.FinalAnswer,
	}

	nextIndex := 0
	if prior != nil {
		plan.Revision = prior.Revision + 1
		// Carry completed steps forward by copy so revisions never alias.
		carried := prior.Clone()
		for _, s := range carried.Steps {
			if s.Status == stride.StepDone {
				plan.Steps = append(plan.Steps, s)
			}
			if s.Index >= nextIndex {
				nextIndex = s.Index + 1
			}
		}
	}

	if !wire.Complete && len(wire.Steps) == 0 {
		return stride.Plan{}, &stride.ParseError{
			Phase: stride.PhaseDeciding,
			Raw:   raw,
			Err:   errors.New("plan has no pending steps and no terminal marker"),
		}
	}

	for _, ws := range wire.Steps {
		if ws.Tool == "" {
			return stride.Plan{}, &stride.ParseError{
				Phase: stride.PhaseDeciding,
				Raw:   raw,
				Err:   errors.New("step missing tool name"),
			}
		}
		args := ws.Args
		if args == nil {
			args = map[string]any{}
		}
		plan.Steps = append(plan.Steps, stride.Step{
			Index:       nextIndex,
			Description: ws.Description,
			Tool:        ws.Tool,
			Args:        args,
			Status:      stride.StepPending,
		})
		nextIndex++
	}

	return plan, nil
}
