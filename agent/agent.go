package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spetersoncode/stride"
	"github.com/spetersoncode/stride/decision"
	"github.com/spetersoncode/stride/event"
	"github.com/spetersoncode/stride/executor"
	"github.com/spetersoncode/stride/llm"
	"github.com/spetersoncode/stride/perception"
	"github.com/spetersoncode/stride/retry"
	"github.com/spetersoncode/stride/tool"
	"github.com/spetersoncode/stride/validate"
)

// Agent orchestrates the perceive-decide-validate-execute loop. It is
// safe to share one Agent across concurrent runs: all per-run state lives
// on the Session and in run-scoped engines.
type Agent struct {
	client   llm.Client
	registry *tool.Registry
}

// New creates an Agent on the given LLM client and tool registry.
func New(client llm.Client, registry *tool.Registry) *Agent {
	return &Agent{
		client:   client,
		registry: registry,
	}
}

// Run executes the loop for one query and blocks until the session is
// terminal. The returned session always has a terminal status; err is
// non-nil when the session failed or was aborted, carrying the cause.
func (a *Agent) Run(ctx context.Context, query string, opts ...Option) (*stride.Session, error) {
	eventCh := a.RunStream(ctx, query, opts...)

	var session *stride.Session
	var runErr error

	for ev := range eventCh {
		switch ev.Type {
		case event.RunError:
			runErr = ev.Error
			if ev.Session != nil {
				session = ev.Session
			}
		case event.RunEnd:
			session = ev.Session
		}
	}

	return session, runErr
}

// RunStream executes the loop and returns a channel of lifecycle events.
// The channel is closed when the session reaches a terminal status.
// Callers should drain the channel to ensure cleanup.
func (a *Agent) RunStream(ctx context.Context, query string, opts ...Option) <-chan event.Event {
	eventCh := event.NewChannel()

	go a.runLoop(ctx, query, eventCh, opts...)

	return eventCh
}

func (a *Agent) runLoop(ctx context.Context, query string, eventCh chan<- event.Event, opts ...Option) {
	defer close(eventCh)

	o := ApplyOptions(opts...)
	log := o.Logger

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	session := stride.NewSession(query)
	event.Emit(eventCh, event.Event{Type: event.RunStart, SessionID: session.ID})
	log.Info("run started", zap.String("session", session.ID), zap.String("query", query))

	// The decision engine carries stall-detection state, so each run gets
	// its own.
	perceiver := perception.New(a.client)
	decider := decision.New(a.client)
	validator := validate.New(a.registry, o.Validation)
	exec := executor.New(a.registry, executor.WithTimeout(o.StepTimeout))

	records := a.recallMemory(ctx, session, o)

	var lastOutput string

	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			a.finish(ctx, session, o, eventCh, statusForContext(err), "", err)
			return
		}
		if iter > o.MaxIterations {
			a.finish(ctx, session, o, eventCh, stride.StatusFailed, "", ErrIterationCeiling)
			return
		}

		session.Iterations = append(session.Iterations, stride.Iteration{
			Index:     iter,
			StartedAt: time.Now(),
		})
		cur := &session.Iterations[len(session.Iterations)-1]
		event.Emit(eventCh, event.Event{Type: event.IterationStart, SessionID: session.ID, Iteration: iter})

		pr := phaseRunner{opts: o, it: cur, sessionID: session.ID, eventCh: eventCh, log: log}

		// PERCEIVING
		ws, err := runPhase(ctx, pr, stride.PhasePerceiving, func() (*stride.WorldState, error) {
			return perceiver.Perceive(ctx, perception.View{
				Query:        query,
				Prior:        session.LatestWorldState(),
				LatestOutput: lastOutput,
				Iteration:    iter,
			})
		})
		if err != nil {
			a.finish(ctx, session, o, eventCh, statusForError(ctx, err), "", err)
			return
		}
		cur.WorldState = ws
		event.Emit(eventCh, event.Event{Type: event.Perceived, SessionID: session.ID, Iteration: iter, WorldState: ws})

		if ws.GoalAchieved {
			a.finish(ctx, session, o, eventCh, stride.StatusSucceeded, finalAnswer(ws, session), nil)
			return
		}

		// DECIDING and VALIDATING, with rule rejections fed back into the
		// next decision attempt.
		plan, err := a.decideAndValidate(ctx, pr, decider, validator, decision.Input{
			Query:      query,
			WorldState: ws,
			PriorPlan:  session.FinalPlan(),
			Strategy:   o.Strategy,
			Memory:     records,
			Tools:      a.registry.List(),
		})
		if err != nil {
			a.finish(ctx, session, o, eventCh, statusForError(ctx, err), "", err)
			return
		}

		if plan.Complete {
			cur.Plan = &plan
			a.finish(ctx, session, o, eventCh, stride.StatusSucceeded, plan.FinalAnswer, nil)
			return
		}

		// EXECUTING
		pending := plan.Pending()
		results := a.executeSteps(ctx, exec, &plan, pending, o, eventCh, session.ID, iter)

		// UPDATING: merge results in step declaration order regardless of
		// completion order.
		for slot, idx := range pending {
			res := results[slot]
			if res.OK {
				plan.Steps[idx].Status = stride.StepDone
			} else {
				plan.Steps[idx].Status = stride.StepError
			}
			cur.Results = append(cur.Results, res)
			event.Emit(eventCh, event.Event{Type: event.StepResult, SessionID: session.ID, Iteration: iter, Result: &results[slot]})
		}
		cur.Plan = &plan
		lastOutput = renderResults(&plan, results)

		event.Emit(eventCh, event.Event{Type: event.IterationEnd, SessionID: session.ID, Iteration: iter})
		log.Debug("iteration complete",
			zap.String("session", session.ID),
			zap.Int("iteration", iter),
			zap.Int("steps", len(results)))
	}
}

// decideAndValidate runs the decision phase and the validator as one
// bounded feedback loop: a rule rejection becomes Feedback on the next
// decision attempt instead of reaching the executor.
func (a *Agent) decideAndValidate(ctx context.Context, pr phaseRunner, decider *decision.Engine, validator *validate.Validator, in decision.Input) (stride.Plan, error) {
	var lastErr error

	for attempt := 1; attempt <= pr.opts.PhaseRetries; attempt++ {
		plan, err := runPhase(ctx, pr, stride.PhaseDeciding, func() (stride.Plan, error) {
			return decider.Decide(ctx, in)
		})
		if err != nil {
			return stride.Plan{}, err
		}
		event.Emit(pr.eventCh, event.Event{Type: event.PlanProposed, SessionID: pr.sessionID, Iteration: pr.it.Index, Plan: &plan})

		if plan.Complete {
			return plan, nil
		}

		validated, err := validator.Validate(plan)
		if err == nil {
			event.Emit(pr.eventCh, event.Event{Type: event.PlanValidated, SessionID: pr.sessionID, Iteration: pr.it.Index, Plan: &validated})
			return validated, nil
		}

		lastErr = err
		pr.recordFailure(stride.PhaseValidating, attempt, err)
		event.Emit(pr.eventCh, event.Event{Type: event.PlanRejected, SessionID: pr.sessionID, Iteration: pr.it.Index, Plan: &plan, Error: err})
		pr.log.Warn("plan rejected",
			zap.String("session", pr.sessionID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		in.Feedback = err.Error()
	}

	return stride.Plan{}, fmt.Errorf("plan validation failed after %d attempts: %w", pr.opts.PhaseRetries, lastErr)
}

// executeSteps runs the pending steps of the plan and returns their
// results indexed by the pending slice (declaration order).
func (a *Agent) executeSteps(ctx context.Context, exec *executor.Executor, plan *stride.Plan, pending []int, o *Options, eventCh chan<- event.Event, sessionID string, iter int) []stride.StepResult {
	// Statuses are advanced before dispatch so goroutines only read the
	// plan.
	for _, idx := range pending {
		plan.Steps[idx].Status = stride.StepExecuting
		plan.Steps[idx].Attempts++
	}

	results := make([]stride.StepResult, len(pending))

	if o.ParallelSteps && len(pending) > 1 {
		var wg sync.WaitGroup
		for slot, idx := range pending {
			wg.Add(1)
			go func(slot, idx int) {
				defer wg.Done()
				results[slot] = a.executeStep(ctx, exec, plan.Steps[idx], eventCh, sessionID, iter)
			}(slot, idx)
		}
		wg.Wait()
	} else {
		for slot, idx := range pending {
			results[slot] = a.executeStep(ctx, exec, plan.Steps[idx], eventCh, sessionID, iter)
		}
	}

	return results
}

func (a *Agent) executeStep(ctx context.Context, exec *executor.Executor, step stride.Step, eventCh chan<- event.Event, sessionID string, iter int) stride.StepResult {
	event.Emit(eventCh, event.Event{Type: event.StepExecuting, SessionID: sessionID, Iteration: iter, Step: &step})

	desc, err := a.registry.Resolve(step.Tool)
	if err != nil {
		return stride.Failed(step.Index, stride.FailureRejected, err.Error(), 0)
	}

	return exec.Execute(ctx, step, desc)
}

// recallMemory retrieves planning context for the query. Retrieval is
// best-effort; a failing store never blocks the run.
func (a *Agent) recallMemory(ctx context.Context, session *stride.Session, o *Options) []stride.MemoryRecord {
	if o.Memory == nil {
		return nil
	}
	records, err := o.Memory.Query(ctx, session.Query, o.MemoryTopK)
	if err != nil {
		o.Logger.Warn("memory query failed", zap.String("session", session.ID), zap.Error(err))
		return nil
	}
	return records
}

// finish seals the session, writes the memory record, and emits the
// terminal events.
func (a *Agent) finish(ctx context.Context, session *stride.Session, o *Options, eventCh chan<- event.Event, status stride.Status, answer string, cause error) {
	session.Seal(status, answer, cause)

	if o.Memory != nil {
		// The write must survive run cancellation, on its own short
		// deadline.
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := o.Memory.Write(wctx, stride.NewMemoryRecord(session)); err != nil {
			o.Logger.Warn("memory write failed", zap.String("session", session.ID), zap.Error(err))
		}
	}

	if cause != nil {
		event.Emit(eventCh, event.Event{Type: event.RunError, SessionID: session.ID, Error: cause, Session: session})
	}
	event.Emit(eventCh, event.Event{Type: event.RunEnd, SessionID: session.ID, Session: session})

	o.Logger.Info("run finished",
		zap.String("session", session.ID),
		zap.String("status", string(status)),
		zap.Int("iterations", len(session.Iterations)),
		zap.Error(cause))
}

// phaseRunner bundles the run-scoped context needed to retry one phase.
type phaseRunner struct {
	opts      *Options
	it        *stride.Iteration
	sessionID string
	eventCh   chan<- event.Event
	log       *zap.Logger
}

func (pr phaseRunner) recordFailure(phase stride.Phase, attempt int, err error) {
	pr.it.Failures = append(pr.it.Failures, stride.PhaseFailure{
		Phase:   phase,
		Attempt: attempt,
		Reason:  err.Error(),
		At:      time.Now(),
	})
}

// runPhase executes one loop phase with bounded retries. Transient
// failures are recorded on the iteration and retried with backoff;
// anything else aborts immediately. The last error is returned once the
// retry budget is spent.
func runPhase[T any](ctx context.Context, pr phaseRunner, phase stride.Phase, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= pr.opts.PhaseRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}

		lastErr = err
		if !retry.IsTransient(err) {
			return zero, err
		}

		pr.recordFailure(phase, attempt, err)
		event.Emit(pr.eventCh, event.Event{Type: event.PhaseRetry, SessionID: pr.sessionID, Iteration: pr.it.Index, Phase: phase, Error: err})
		pr.log.Warn("phase failed",
			zap.String("session", pr.sessionID),
			zap.String("phase", string(phase)),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < pr.opts.PhaseRetries {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(pr.opts.Backoff.Delay(attempt - 1)):
			}
		}
	}

	return zero, lastErr
}

// renderResults flattens an iteration's step results into the text the
// next perception pass reads.
func renderResults(plan *stride.Plan, results []stride.StepResult) string {
	byIndex := make(map[int]stride.Step, len(plan.Steps))
	for _, s := range plan.Steps {
		byIndex[s.Index] = s
	}

	var b strings.Builder
	for _, r := range results {
		tool := byIndex[r.StepIndex].Tool
		if r.OK {
			fmt.Fprintf(&b, "step %d (%s) succeeded: %s\n", r.StepIndex, tool, r.Output)
		} else {
			fmt.Fprintf(&b, "step %d (%s) failed: %s\n", r.StepIndex, tool, r.Failure.String())
		}
	}
	return b.String()
}

// finalAnswer picks the answer for a goal-achieved termination.
func finalAnswer(ws *stride.WorldState, session *stride.Session) string {
	if ws.Summary != "" {
		return ws.Summary
	}
	if p := session.FinalPlan(); p != nil && p.FinalAnswer != "" {
		return p.FinalAnswer
	}
	return ""
}

func statusForContext(err error) stride.Status {
	if errors.Is(err, context.Canceled) {
		return stride.StatusAborted
	}
	return stride.StatusFailed
}

// statusForError maps a loop-phase error to a terminal status. Context
// cancellation by the caller aborts; everything else fails.
func statusForError(ctx context.Context, err error) stride.Status {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return stride.StatusAborted
	}
	return stride.StatusFailed
}
