// Package tool provides the tool registry and the uniform provider
// protocol it dispatches through.
//
// A [Provider] is any source of callable tools: an in-process
// [LocalProvider], an MCP server (see the mcp package), or anything else
// that can describe its tools and invoke them by name. The [Registry]
// queries every configured provider once at startup and indexes the
// discovered tools; a provider that fails discovery is recorded as
// unavailable rather than aborting startup.
package tool

import (
	"context"

	"github.com/spetersoncode/stride"
)

// Provider is a source of callable tools.
type Provider interface {
	// Name identifies the provider in descriptors and diagnostics.
	Name() string

	// Describe returns the provider's tool descriptors. It is called once
	// at registry initialization.
	Describe(ctx context.Context) ([]stride.ToolDescriptor, error)

	// Invoke calls the named tool with the given arguments and returns the
	// result content. Provider-reported failures come back as errors.
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}
