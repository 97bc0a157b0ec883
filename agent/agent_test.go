package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/stride"
	"github.com/spetersoncode/stride/decision"
	"github.com/spetersoncode/stride/event"
	"github.com/spetersoncode/stride/llm"
	"github.com/spetersoncode/stride/memory"
	"github.com/spetersoncode/stride/retry"
	"github.com/spetersoncode/stride/schema"
	"github.com/spetersoncode/stride/tool"
)

// scriptedClient plays back completions in order. Perception and decision
// share one client, so the script interleaves both phases.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	calls     int
	prompts   []llm.Request
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, req)
	i := c.calls
	c.calls++
	if i < len(c.responses) {
		return c.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

func (c *scriptedClient) prompt(i int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompts[i].Prompt
}

const (
	worldStateWorking = `{"facts": {"intent": "arithmetic"}, "confidence": 0.6, "goalAchieved": false}`
	worldStateDone    = `{"facts": {"result": "5"}, "confidence": 0.95, "goalAchieved": true, "summary": "2+3 = 5"}`
	calcPlan          = `{"complete": false, "steps": [{"description": "add", "tool": "calculator", "args": {"a": 2, "b": 3, "op": "add"}}]}`
)

func calcRegistry(t *testing.T) *tool.Registry {
	t.Helper()

	calcSchema := schema.Object().
		Field("a", schema.Number().Required()).
		Field("b", schema.Number().Required()).
		Field("op", schema.String().Enum("add", "sub", "mul", "div").Required()).
		Strict().
		MustBuild()

	type calcArgs struct {
		A  float64 `json:"a"`
		B  float64 `json:"b"`
		Op string  `json:"op"`
	}

	p := tool.NewLocalProvider("local")
	tool.MustRegisterFunc(p, "calculator", "arithmetic", calcSchema,
		func(ctx context.Context, args calcArgs) (string, error) {
			switch args.Op {
			case "add":
				return fmt.Sprintf("%g", args.A+args.B), nil
			default:
				return "", fmt.Errorf("unsupported op %q", args.Op)
			}
		})

	return tool.NewRegistry(context.Background(), p)
}

func fastOpts(opts ...Option) []Option {
	base := []Option{
		WithBackoff(retry.Config{InitialDelay: 0, MaxDelay: 0, Multiplier: 1}),
	}
	return append(base, opts...)
}

func TestRunCalculatorScenario(t *testing.T) {
	client := &scriptedClient{responses: []string{
		worldStateWorking, // perceive 1
		calcPlan,          // decide 1
		worldStateDone,    // perceive 2
	}}
	store := memory.NewInMemory()

	a := New(client, calcRegistry(t))
	session, err := a.Run(context.Background(), "compute 2+3 and report",
		fastOpts(WithMemory(store))...)

	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, stride.StatusSucceeded, session.Status)
	assert.Equal(t, "2+3 = 5", session.FinalAnswer)
	require.Len(t, session.Iterations, 2)

	first := session.Iterations[0]
	require.NotNil(t, first.Plan)
	require.Len(t, first.Results, 1)
	assert.True(t, first.Results[0].OK)
	assert.Equal(t, "5", first.Results[0].Output)
	assert.Equal(t, stride.StepDone, first.Plan.Steps[0].Status)
	assert.Equal(t, 1, first.Plan.Steps[0].Attempts)

	// The second perception saw the step output.
	assert.Contains(t, client.prompt(2), "succeeded: 5")

	// One record written at termination.
	assert.Equal(t, 1, store.Len())
	recs, err := store.Query(context.Background(), "compute 2+3 and report", 5)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, session.ID, recs[0].SessionID)
}

func TestRunCompleteMarkerTerminates(t *testing.T) {
	client := &scriptedClient{responses: []string{
		worldStateWorking,
		`{"complete": true, "finalAnswer": "nothing to do", "steps": []}`,
	}}

	a := New(client, calcRegistry(t))

	var types []event.Type
	var final *stride.Session
	for ev := range a.RunStream(context.Background(), "do nothing", fastOpts()...) {
		types = append(types, ev.Type)
		if ev.Type == event.RunEnd {
			final = ev.Session
		}
	}

	require.NotNil(t, final)
	assert.Equal(t, stride.StatusSucceeded, final.Status)
	assert.Equal(t, "nothing to do", final.FinalAnswer)

	assert.Equal(t, event.RunStart, types[0])
	assert.Contains(t, types, event.IterationStart)
	assert.Contains(t, types, event.Perceived)
	assert.Contains(t, types, event.PlanProposed)
	assert.Equal(t, event.RunEnd, types[len(types)-1])
}

func TestRunStalledPlanFails(t *testing.T) {
	// The handler only implements "add", so the step errors at runtime
	// every iteration while the model keeps proposing the identical plan.
	stuckPlan := `{"complete": false, "steps": [{"tool": "calculator", "args": {"a": 7, "b": 3, "op": "sub"}}]}`
	client := &scriptedClient{responses: []string{
		worldStateWorking, stuckPlan,
		worldStateWorking, stuckPlan,
		worldStateWorking, stuckPlan,
	}}

	a := New(client, calcRegistry(t))
	session, err := a.Run(context.Background(), "compute 7-3", fastOpts()...)

	require.Error(t, err)
	var stalled *decision.ErrPlanStalled
	assert.ErrorAs(t, err, &stalled)

	require.NotNil(t, session)
	assert.Equal(t, stride.StatusFailed, session.Status)
	assert.Contains(t, session.LastError, "unchanged")
	assert.Len(t, session.Iterations, 3)
}

func TestRunPerceptionParseFailureIsBounded(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"I do not speak JSON.",
		"Still not JSON.",
		"Nope.",
	}}

	a := New(client, calcRegistry(t))
	session, err := a.Run(context.Background(), "compute 2+3", fastOpts()...)

	require.Error(t, err)
	var pe *stride.ParseError
	assert.ErrorAs(t, err, &pe)

	require.NotNil(t, session)
	assert.Equal(t, stride.StatusFailed, session.Status)
	require.Len(t, session.Iterations, 1)

	failures := session.Iterations[0].Failures
	require.Len(t, failures, 3)
	for i, f := range failures {
		assert.Equal(t, stride.PhasePerceiving, f.Phase)
		assert.Equal(t, i+1, f.Attempt)
	}
}

func TestRunValidationFeedbackLoop(t *testing.T) {
	// First plan names a tool that was never discovered; the rejection is
	// fed back and the second decision proposes a valid plan.
	client := &scriptedClient{responses: []string{
		worldStateWorking,
		`{"complete": false, "steps": [{"tool": "telepathy", "args": {}}]}`,
		calcPlan,
		worldStateDone,
	}}

	a := New(client, calcRegistry(t))
	session, err := a.Run(context.Background(), "compute 2+3", fastOpts()...)

	require.NoError(t, err)
	assert.Equal(t, stride.StatusSucceeded, session.Status)

	// The retry prompt carried the validator's rejection.
	assert.Contains(t, client.prompt(2), "rejected")
	assert.Contains(t, client.prompt(2), "telepathy")

	failures := session.Iterations[0].Failures
	require.NotEmpty(t, failures)
	assert.Equal(t, stride.PhaseValidating, failures[0].Phase)
}

func TestRunValidationRetriesExhaustedFails(t *testing.T) {
	// Each revision is different, so the stall detector stays quiet; the
	// validator rejects all three and the retry budget runs out.
	client := &scriptedClient{responses: []string{
		worldStateWorking,
		`{"complete": false, "steps": [{"tool": "telepathy", "args": {"n": 1}}]}`,
		`{"complete": false, "steps": [{"tool": "telepathy", "args": {"n": 2}}]}`,
		`{"complete": false, "steps": [{"tool": "telepathy", "args": {"n": 3}}]}`,
	}}

	a := New(client, calcRegistry(t))
	session, err := a.Run(context.Background(), "compute 2+3", fastOpts()...)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	require.NotNil(t, session)
	assert.Equal(t, stride.StatusFailed, session.Status)
}

func TestRunIterationCeiling(t *testing.T) {
	// The model keeps planning fresh work and never signals completion.
	client := &scriptedClient{responses: []string{
		worldStateWorking,
		`{"complete": false, "steps": [{"tool": "calculator", "args": {"a": 1, "b": 1, "op": "add"}}]}`,
		worldStateWorking,
		`{"complete": false, "steps": [{"tool": "calculator", "args": {"a": 2, "b": 2, "op": "add"}}]}`,
	}}

	a := New(client, calcRegistry(t))
	session, err := a.Run(context.Background(), "count forever",
		fastOpts(WithMaxIterations(2))...)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIterationCeiling)

	require.NotNil(t, session)
	assert.Equal(t, stride.StatusFailed, session.Status)
	assert.Len(t, session.Iterations, 2)
}

func TestRunCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &scriptedClient{}
	a := New(client, calcRegistry(t))
	session, err := a.Run(ctx, "compute 2+3", fastOpts()...)

	require.Error(t, err)
	require.NotNil(t, session)
	assert.Equal(t, stride.StatusAborted, session.Status)
	assert.Empty(t, session.Iterations)
}

func TestRunMergesParallelResultsInDeclarationOrder(t *testing.T) {
	// Two steps in one plan; the first sleeps so the second finishes
	// first. Results must still arrive in declaration order.
	p := tool.NewLocalProvider("local")
	p.MustRegister("slow", "slow tool", nil, func(ctx context.Context, args map[string]any) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "slow done", nil
	})
	p.MustRegister("fast", "fast tool", nil, func(ctx context.Context, args map[string]any) (string, error) {
		return "fast done", nil
	})
	registry := tool.NewRegistry(context.Background(), p)

	twoStepPlan := `{"complete": false, "steps": [
		{"tool": "slow", "args": {}},
		{"tool": "fast", "args": {}}
	]}`
	client := &scriptedClient{responses: []string{
		worldStateWorking, twoStepPlan, worldStateDone,
	}}

	a := New(client, registry)
	session, err := a.Run(context.Background(), "run both",
		fastOpts(WithParallelSteps(true))...)

	require.NoError(t, err)
	require.Len(t, session.Iterations, 2)

	results := session.Iterations[0].Results
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].StepIndex)
	assert.Equal(t, "slow done", results[0].Output)
	assert.Equal(t, 1, results[1].StepIndex)
	assert.Equal(t, "fast done", results[1].Output)
}

func TestRunStepFailureTriggersReplanning(t *testing.T) {
	// The step fails at runtime; the next decision drops it and completes.
	client := &scriptedClient{responses: []string{
		worldStateWorking,
		`{"complete": false, "steps": [{"tool": "calculator", "args": {"a": 1, "b": 2, "op": "sub"}}]}`,
		worldStateWorking,
		`{"complete": true, "finalAnswer": "could not subtract", "steps": []}`,
	}}

	a := New(client, calcRegistry(t))
	session, err := a.Run(context.Background(), "subtract", fastOpts()...)

	require.NoError(t, err)
	assert.Equal(t, stride.StatusSucceeded, session.Status)

	first := session.Iterations[0]
	require.Len(t, first.Results, 1)
	require.False(t, first.Results[0].OK)
	assert.Equal(t, stride.FailureRuntime, first.Results[0].Failure.Kind)
	assert.Equal(t, stride.StepError, first.Plan.Steps[0].Status)

	// The next perception saw the failure text.
	assert.Contains(t, client.prompt(2), "failed")
}
