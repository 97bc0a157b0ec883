// Package perception turns raw session state and tool output into a
// structured world-state snapshot via one LLM call per pass.
package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spetersoncode/stride"
	"github.com/spetersoncode/stride/internal/modeljson"
	"github.com/spetersoncode/stride/llm"
)

const systemPrompt = `You are the perception stage of a task-execution agent.
Given the user's goal, the prior world state, and the latest tool output,
respond with a single JSON object:
{
  "facts": {"name": "value", ...},
  "openQuestions": ["..."],
  "confidence": 0.0,
  "goalAchieved": false,
  "summary": "...",
  "reasoning": "..."
}
Carry forward still-valid facts, fold in new observations, and set
goalAchieved only when the goal is fully satisfied by known facts.`

// View is the slice of session state one perception pass needs.
type View struct {
	// Query is the session's original user goal.
	Query string

	// Prior is the previous snapshot, nil on the first pass.
	Prior *stride.WorldState

	// LatestOutput is the tool output produced since Prior, rendered as
	// text, empty on the first pass.
	LatestOutput string

	// Iteration is the current loop index, for context.
	Iteration int
}

// Engine produces world-state snapshots. It is stateless; all session
// state arrives through the View.
type Engine struct {
	client llm.Client
}

// New creates a perception engine on the given LLM client.
func New(client llm.Client) *Engine {
	return &Engine{client: client}
}

// Perceive invokes the model once and parses its response into a
// WorldState. A structurally unparsable response yields a
// *stride.ParseError, which the agent loop treats as retryable. LLM
// transport failures pass through unchanged.
func (e *Engine) Perceive(ctx context.Context, view View) (*stride.WorldState, error) {
	raw, err := e.client.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: buildPrompt(view),
	})
	if err != nil {
		return nil, err
	}
	return parseWorldState(raw)
}

func buildPrompt(view View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", view.Query)
	fmt.Fprintf(&b, "Iteration: %d\n", view.Iteration)

	if view.Prior != nil {
		prior, _ := json.Marshal(view.Prior)
		fmt.Fprintf(&b, "Prior world state: %s\n", prior)
	} else {
		b.WriteString("Prior world state: none (first pass)\n")
	}

	if view.LatestOutput != "" {
		fmt.Fprintf(&b, "Latest tool output:\n%s\n", view.LatestOutput)
	}
	return b.String()
}

// wireState mirrors WorldState for decoding, keeping the parse tolerant of
// omitted optional fields.
type wireState struct {
	Facts         map[string]string `json:"facts"`
	OpenQuestions []string          `json:"openQuestions"`
	Confidence    float64           `json:"confidence"`
	GoalAchieved  bool              `json:"goalAchieved"`
	Summary       string            `json:"summary"`
	Reasoning     string            `json:"reasoning"`
}

func parseWorldState(raw string) (*stride.WorldState, error) {
	doc, err := modeljson.Extract(raw)
	if err != nil {
		return nil, &stride.ParseError{Phase: stride.PhasePerceiving, Raw: raw, Err: err}
	}

	var wire wireState
	if err := json.Unmarshal(doc, &wire); err != nil {
		return nil, &stride.ParseError{Phase: stride.PhasePerceiving, Raw: raw, Err: err}
	}
	if wire.Facts == nil {
		wire.Facts = map[string]string{}
	}
	if wire.Confidence < 0 {
		wire.Confidence = 0
	}
	if wire.Confidence > 1 {
		wire.Confidence = 1
	}

	return &stride.WorldState{
		Facts:         wire.Facts,
		OpenQuestions: wire.OpenQuestions,
		Confidence:    wire.Confidence,
		GoalAchieved:  wire.GoalAchieved,
		Summary:       wire.Summary,
		Reasoning:     wire.Reasoning,
	}, nil
}
