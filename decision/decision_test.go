package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/stride"
	"github.com/spetersoncode/stride/llm"
)

// scriptedClient returns canned completions in order.
type scriptedClient struct {
	responses []string
	calls     int
	prompts   []llm.Request
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.prompts = append(c.prompts, req)
	i := c.calls
	c.calls++
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

const calcPlanJSON = `{
	"complete": false,
	"steps": [
		{"description": "add the numbers", "tool": "calculator", "args": {"a": 2, "b": 3, "op": "add"}}
	]
}`

func baseInput() Input {
	return Input{
		Query:      "compute 2+3",
		WorldState: &stride.WorldState{Facts: map[string]string{"intent": "arithmetic"}},
		Strategy:   StrategyDirect,
		Tools:      []stride.ToolDescriptor{{Name: "calculator", Description: "arithmetic"}},
	}
}

func TestDecideProducesPlan(t *testing.T) {
	client := &scriptedClient{responses: []string{calcPlanJSON}}

	plan, err := New(client).Decide(context.Background(), baseInput())
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Revision)
	assert.False(t, plan.Complete)
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, 0, plan.Steps[0].Index)
	assert.Equal(t, "calculator", plan.Steps[0].Tool)
	assert.Equal(t, stride.StepPending, plan.Steps[0].Status)
	assert.Equal(t, []int{0}, plan.Pending())
}

func TestDecideCompletePlan(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"complete": true, "finalAnswer": "2+3 = 5", "steps": []}`,
	}}

	plan, err := New(client).Decide(context.Background(), baseInput())
	require.NoError(t, err)
	assert.True(t, plan.Complete)
	assert.Equal(t, "2+3 = 5", plan.FinalAnswer)
	assert.Empty(t, plan.Pending())
}

func TestDecideCarriesDoneStepsForward(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"complete": false, "steps": [{"tool": "reporter", "args": {"text": "5"}}]}`,
	}}

	prior := &stride.Plan{
		Revision: 1,
		Steps: []stride.Step{
			{Index: 0, Tool: "calculator", Args: map[string]any{"a": 2.0}, Status: stride.StepDone},
			{Index: 1, Tool: "calculator", Args: map[string]any{"a": 9.0}, Status: stride.StepError},
		},
	}

	in := baseInput()
	in.PriorPlan = prior

	plan, err := New(client).Decide(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, plan.Revision)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, stride.StepDone, plan.Steps[0].Status)
	assert.Equal(t, "calculator", plan.Steps[0].Tool)

	// New steps index past the prior plan's highest index.
	assert.Equal(t, 2, plan.Steps[1].Index)
	assert.Equal(t, "reporter", plan.Steps[1].Tool)

	// Carried steps are copies, not aliases.
	plan.Steps[0].Args["a"] = 42.0
	assert.Equal(t, 2.0, prior.Steps[0].Args["a"])
}

func TestDecideEmptyPlanWithoutMarkerIsParseError(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"complete": false, "steps": []}`,
	}}

	_, err := New(client).Decide(context.Background(), baseInput())
	var pe *stride.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, stride.PhaseDeciding, pe.Phase)
}

func TestDecideStepWithoutToolIsParseError(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"complete": false, "steps": [{"description": "do something"}]}`,
	}}

	_, err := New(client).Decide(context.Background(), baseInput())
	var pe *stride.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestDecideUnparsableOutputIsParseError(t *testing.T) {
	client := &scriptedClient{responses: []string{"no plan today"}}

	_, err := New(client).Decide(context.Background(), baseInput())
	var pe *stride.ParseError
	require.ErrorAs(t, err, &pe)
	assert.True(t, stride.IsTransient(err))
}

func TestDecideStallsAfterThreeIdenticalPlans(t *testing.T) {
	client := &scriptedClient{responses: []string{calcPlanJSON, calcPlanJSON, calcPlanJSON}}
	engine := New(client)
	in := baseInput()

	_, err := engine.Decide(context.Background(), in)
	require.NoError(t, err)

	_, err = engine.Decide(context.Background(), in)
	require.NoError(t, err)

	_, err = engine.Decide(context.Background(), in)
	require.Error(t, err)

	var stalled *ErrPlanStalled
	require.ErrorAs(t, err, &stalled)
	assert.Equal(t, 3, stalled.Repeats)
	assert.True(t, stride.IsFatal(err))
	assert.False(t, stride.IsTransient(err))
}

func TestDecideDifferentPlansDoNotStall(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"complete": false, "steps": [{"tool": "calculator", "args": {"a": 1}}]}`,
		`{"complete": false, "steps": [{"tool": "calculator", "args": {"a": 2}}]}`,
		`{"complete": false, "steps": [{"tool": "calculator", "args": {"a": 3}}]}`,
		`{"complete": false, "steps": [{"tool": "calculator", "args": {"a": 4}}]}`,
	}}
	engine := New(client)
	in := baseInput()

	for i := 0; i < 4; i++ {
		_, err := engine.Decide(context.Background(), in)
		require.NoError(t, err)
	}
}

func TestDecidePromptCarriesFeedbackAndMemory(t *testing.T) {
	client := &scriptedClient{responses: []string{calcPlanJSON}}

	in := baseInput()
	in.Feedback = "rule denylist rejected step 0"
	in.Memory = []stride.MemoryRecord{{Query: "compute 1+1", Status: stride.StatusSucceeded, FinalAnswer: "2"}}

	_, err := New(client).Decide(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)

	prompt := client.prompts[0].Prompt
	assert.Contains(t, prompt, "rule denylist rejected step 0")
	assert.Contains(t, prompt, "compute 1+1")
	assert.Contains(t, prompt, "calculator")
}
