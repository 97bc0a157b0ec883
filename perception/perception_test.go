package perception

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
	errs      []error
	calls     int
	prompts   []llm.Request
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.prompts = append(c.prompts, req)
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

func TestPerceiveParsesWorldState(t *testing.T) {
	client := &scriptedClient{responses: []string{`{
		"facts": {"intent": "arithmetic", "expression": "2+3"},
		"openQuestions": ["result unknown"],
		"confidence": 0.8,
		"goalAchieved": false,
		"reasoning": "the user wants a sum"
	}`}}

	ws, err := New(client).Perceive(context.Background(), View{Query: "compute 2+3", Iteration: 1})
	require.NoError(t, err)

	intent, ok := ws.Fact("intent")
	assert.True(t, ok)
	assert.Equal(t, "arithmetic", intent)
	assert.Equal(t, []string{"result unknown"}, ws.OpenQuestions)
	assert.InDelta(t, 0.8, ws.Confidence, 1e-9)
	assert.False(t, ws.GoalAchieved)
}

func TestPerceiveToleratesCodeFences(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"Here is the state:\n```json\n{\"facts\": {\"k\": \"v\"}, \"confidence\": 0.5}\n```",
	}}

	ws, err := New(client).Perceive(context.Background(), View{Query: "q"})
	require.NoError(t, err)
	v, _ := ws.Fact("k")
	assert.Equal(t, "v", v)
}

func TestPerceiveClampsConfidence(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"facts": {}, "confidence": 3.5}`,
		`{"facts": {}, "confidence": -1}`,
	}}
	engine := New(client)

	ws, err := engine.Perceive(context.Background(), View{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, ws.Confidence)

	ws, err = engine.Perceive(context.Background(), View{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, ws.Confidence)
}

func TestPerceiveParseError(t *testing.T) {
	client := &scriptedClient{responses: []string{"I cannot help with that."}}

	_, err := New(client).Perceive(context.Background(), View{Query: "q"})
	require.Error(t, err)

	var pe *stride.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, stride.PhasePerceiving, pe.Phase)
	assert.True(t, stride.IsTransient(err))
}

func TestPerceiveTransportErrorPassesThrough(t *testing.T) {
	cause := &llm.UnavailableError{Provider: "test", Err: errors.New("503")}
	client := &scriptedClient{errs: []error{cause}}

	_, err := New(client).Perceive(context.Background(), View{Query: "q"})
	require.Error(t, err)

	var ue *llm.UnavailableError
	assert.ErrorAs(t, err, &ue)
}

func TestPerceivePromptIncludesContext(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"facts": {}, "confidence": 0.1}`}}
	prior := &stride.WorldState{Facts: map[string]string{"seen": "yes"}}

	_, err := New(client).Perceive(context.Background(), View{
		Query:        "compute 2+3",
		Prior:        prior,
		LatestOutput: "step 0 (calculator) succeeded: 5",
		Iteration:    2,
	})
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)

	prompt := client.prompts[0].Prompt
	assert.Contains(t, prompt, "compute 2+3")
	assert.Contains(t, prompt, "seen")
	assert.Contains(t, prompt, "succeeded: 5")
}
