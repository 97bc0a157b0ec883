// Package llm defines the language-model client contract consumed by the
// perception and decision engines, and the error classification the agent
// loop relies on for retry decisions.
//
// The contract is intentionally narrow: one completion per call, plain text
// in and out. Each engine owns its prompt construction and response
// parsing; this package only moves text. Adapters for Anthropic, OpenAI,
// and Google Gemini live in the subpackages.
package llm

import (
	"context"
	"fmt"

	"github.com/spetersoncode/stride"
)

// Request carries a single completion call.
type Request struct {
	// System holds role instructions for the call (may be empty).
	System string

	// Prompt holds the structured context the engine built for this call.
	Prompt string
}

// Client is the language-model call contract. A call is one suspension
// point: it either returns the model's text or fails. Unavailability is
// reported as *UnavailableError so the caller can retry with backoff;
// malformed text is not an error at this layer — engines handle parsing.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// UnavailableError indicates the model endpoint could not serve the call
// (rate limit, overload, network). It is transient.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("llm: %s unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Category returns stride.ErrorTransient.
func (e *UnavailableError) Category() stride.ErrorCategory { return stride.ErrorTransient }

// Retryable returns true.
func (e *UnavailableError) Retryable() bool { return true }
