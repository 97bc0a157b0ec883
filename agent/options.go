package agent

import (
	"time"

	"go.uber.org/zap"

	"github.com/spetersoncode/stride/decision"
	"github.com/spetersoncode/stride/executor"
	"github.com/spetersoncode/stride/memory"
	"github.com/spetersoncode/stride/retry"
	"github.com/spetersoncode/stride/validate"
)

// Options contains configuration for one run.
type Options struct {
	// MaxIterations caps loop iterations to guarantee termination.
	// Default is 10.
	MaxIterations int

	// PhaseRetries bounds retries of a failing loop phase (perception
	// parse errors, LLM outages, validation rejections). Default is 3.
	PhaseRetries int

	// Timeout sets a deadline for the entire run. Zero means no
	// run-level deadline (the caller's context still applies).
	Timeout time.Duration

	// StepTimeout is the wall-clock budget per tool invocation.
	// Default is executor.DefaultTimeout.
	StepTimeout time.Duration

	// ParallelSteps enables concurrent execution of the steps within one
	// iteration. Results are merged in step declaration order either
	// way. Default is true.
	ParallelSteps bool

	// Strategy selects the planning policy. Default is StrategyDirect.
	Strategy decision.Strategy

	// Memory is the session memory store. If nil, the run neither
	// retrieves context nor writes a record.
	Memory memory.Store

	// MemoryTopK is how many past records to retrieve for planning
	// context. Default is 5.
	MemoryTopK int

	// Validation tunes the plan validator's rule set.
	Validation validate.Config

	// Backoff shapes the delay between phase retry attempts. Only its
	// delay parameters apply; attempt count comes from PhaseRetries.
	Backoff retry.Config

	// Logger receives structured run diagnostics. Default is a no-op.
	Logger *zap.Logger
}

// Option is a functional option for configuring a run.
type Option func(*Options)

// WithMaxIterations caps loop iterations. Default is 10.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		o.MaxIterations = n
	}
}

// WithPhaseRetries bounds retries per failing loop phase. Default is 3.
func WithPhaseRetries(n int) Option {
	return func(o *Options) {
		o.PhaseRetries = n
	}
}

// WithTimeout sets a deadline for the entire run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithStepTimeout sets the wall-clock budget per tool invocation.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.StepTimeout = d
	}
}

// WithParallelSteps enables or disables concurrent step execution within
// an iteration. Default is true.
func WithParallelSteps(enabled bool) Option {
	return func(o *Options) {
		o.ParallelSteps = enabled
	}
}

// WithStrategy selects the planning policy.
func WithStrategy(s decision.Strategy) Option {
	return func(o *Options) {
		o.Strategy = s
	}
}

// WithMemory attaches a memory store. The run retrieves planning context
// from it and writes one record when the session reaches a terminal
// status.
func WithMemory(store memory.Store) Option {
	return func(o *Options) {
		o.Memory = store
	}
}

// WithMemoryTopK sets how many past records to retrieve. Default is 5.
func WithMemoryTopK(k int) Option {
	return func(o *Options) {
		o.MemoryTopK = k
	}
}

// WithValidation tunes the plan validator's rule set.
func WithValidation(cfg validate.Config) Option {
	return func(o *Options) {
		o.Validation = cfg
	}
}

// WithBackoff shapes the delay between phase retry attempts.
func WithBackoff(cfg retry.Config) Option {
	return func(o *Options) {
		o.Backoff = cfg
	}
}

// WithLogger sets the structured logger for run diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = log
	}
}

// ApplyOptions applies functional options to an Options struct with
// defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxIterations: 10,
		PhaseRetries:  3,
		StepTimeout:   executor.DefaultTimeout,
		ParallelSteps: true,
		Strategy:      decision.StrategyDirect,
		MemoryTopK:    5,
		Backoff:       retry.DefaultConfig(),
		Logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
