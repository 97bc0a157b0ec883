// Package mcp exposes MCP (Model Context Protocol) servers as tool
// providers.
//
// Each [Provider] wraps one MCP client connection (stdio subprocess or
// SSE) and implements [tool.Provider], so MCP-served tools flow through
// the same registry, validator, and executor path as local ones:
//
//	calc, err := mcp.NewStdioProvider(ctx, "calculator", "./calc-server", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer calc.Close()
//
//	registry := tool.NewRegistry(ctx, calc, otherProvider)
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/spetersoncode/stride"
)

// Provider adapts one MCP server connection to the tool.Provider protocol.
type Provider struct {
	name   string
	client *client.Client
}

// NewStdioProvider starts the MCP server executable as a subprocess and
// connects over stdio. The returned provider owns the connection; callers
// must Close it when done.
func NewStdioProvider(ctx context.Context, name, command string, env []string, args ...string) (*Provider, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: create stdio client for %s: %w", name, err)
	}
	return newProvider(ctx, name, c)
}

// NewSSEProvider connects to an MCP server over SSE at the given base URL.
func NewSSEProvider(ctx context.Context, name, baseURL string) (*Provider, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("mcp: create SSE client for %s: %w", name, err)
	}
	return newProvider(ctx, name, c)
}

// NewProviderFromClient wraps an existing MCP client. The client is
// started and the session initialized here.
func NewProviderFromClient(ctx context.Context, name string, c *client.Client) (*Provider, error) {
	return newProvider(ctx, name, c)
}

func newProvider(ctx context.Context, name string, c *client.Client) (*Provider, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp: start client for %s: %w", name, err)
	}

	_, err := c.Initialize(ctx, mcpgo.InitializeRequest{
		Params: mcpgo.InitializeParams{
			ProtocolVersion: mcpgo.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcpgo.ClientCapabilities{},
			ClientInfo: mcpgo.Implementation{
				Name:    "stride-mcp-client",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: initialize session for %s: %w", name, err)
	}

	return &Provider{name: name, client: c}, nil
}

// Name implements tool.Provider.
func (p *Provider) Name() string { return p.name }

// Describe lists the server's tools. The registry calls this once at
// startup; a failure here marks the whole provider unavailable.
func (p *Provider) Describe(ctx context.Context) ([]stride.ToolDescriptor, error) {
	result, err := p.client.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools from %s: %w", p.name, err)
	}

	descs := make([]stride.ToolDescriptor, 0, len(result.Tools))
	for _, t := range result.Tools {
		descs = append(descs, descriptorFromMCP(p.name, t))
	}
	return descs, nil
}

// Invoke calls a tool on the MCP server. A server-reported tool error is
// returned as an error so the executor classifies it as a runtime failure.
func (p *Provider) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	result, err := p.client.CallTool(ctx, mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return "", err
	}

	content := flattenResult(result)
	if result != nil && result.IsError {
		return "", fmt.Errorf("mcp: %s reported error: %s", name, content)
	}
	return content, nil
}

// Close closes the connection to the MCP server.
func (p *Provider) Close() error {
	return p.client.Close()
}
