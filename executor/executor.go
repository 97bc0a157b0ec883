// Package executor runs single tool invocations inside an isolation
// boundary: a wall-clock timeout, strict argument conformance, and panic
// containment. Every invocation yields a StepResult; no fault escapes to
// the caller.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spetersoncode/stride"
	"github.com/spetersoncode/stride/internal/conform"
	"github.com/spetersoncode/stride/tool"
)

// DefaultTimeout bounds one tool invocation when no option is given.
const DefaultTimeout = 30 * time.Second

// Invoker dispatches a tool call to its provider. *tool.Registry
// implements it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

// Executor executes steps against an Invoker with enforced limits.
type Executor struct {
	invoker Invoker
	timeout time.Duration
}

// Option configures the executor.
type Option func(*Executor)

// WithTimeout sets the per-invocation wall-clock budget.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.timeout = d
	}
}

// New creates an executor dispatching through the given invoker.
func New(invoker Invoker, opts ...Option) *Executor {
	e := &Executor{
		invoker: invoker,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// invocation carries the outcome of the provider call goroutine.
type invocation struct {
	output string
	err    error
}

// Execute runs one step against the given descriptor and returns its
// result. Failures are classified as timeout, rejected, or runtime and
// reported inside the StepResult; Execute itself never fails.
//
// The invocation context is cancelled on timeout. The result of a
// cancelled invocation is discarded, so partial output never reaches the
// session.
func (e *Executor) Execute(ctx context.Context, step stride.Step, desc stride.ToolDescriptor) stride.StepResult {
	start := time.Now()

	if step.Tool != desc.Name {
		return stride.Failed(step.Index, stride.FailureRejected,
			fmt.Sprintf("descriptor %s does not match step tool %s", desc.Name, step.Tool),
			time.Since(start))
	}

	// Arguments are checked again here even though the validator already
	// ran: the executor is the isolation boundary and must not trust
	// upstream state.
	if err := conform.Arguments(desc.InputSchema, step.Args); err != nil {
		return stride.Failed(step.Index, stride.FailureRejected, err.Error(), time.Since(start))
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan invocation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invocation{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		output, err := e.invoker.Invoke(execCtx, step.Tool, step.Args)
		done <- invocation{output: output, err: err}
	}()

	select {
	case <-execCtx.Done():
		// Timed out or cancelled. The goroutine's eventual result is
		// discarded via the buffered channel.
		kind := stride.FailureTimeout
		msg := fmt.Sprintf("invocation exceeded %s", e.timeout)
		if errors.Is(execCtx.Err(), context.Canceled) {
			msg = "invocation cancelled"
		}
		return stride.Failed(step.Index, kind, msg, time.Since(start))

	case inv := <-done:
		if inv.err != nil {
			return stride.Failed(step.Index, classify(inv.err), inv.err.Error(), time.Since(start))
		}
		return stride.Succeeded(step.Index, inv.output, time.Since(start))
	}
}

// classify maps invocation errors to failure kinds. Unknown tools count as
// rejections (the call never ran); everything else is a provider runtime
// failure.
func classify(err error) stride.FailureKind {
	var notFound *tool.NotFoundError
	if errors.As(err, &notFound) {
		return stride.FailureRejected
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return stride.FailureTimeout
	}
	return stride.FailureRuntime
}
