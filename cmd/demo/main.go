// Command demo runs a single agent query against the configured LLM
// provider, with a built-in calculator plus any MCP servers named in the
// environment.
//
// Usage:
//
//	demo "compute 2+3 and report"
//
// Environment:
//
//	ANTHROPIC_API_KEY / OPENAI_API_KEY / GOOGLE_API_KEY  provider selection
//	MCP_SSE_URL     optional MCP server (SSE transport)
//	MCP_STDIO_CMD   optional MCP server (stdio transport, command line)
//	MEMORY_DB       optional path to the SQLite memory database
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/spetersoncode/stride/agent"
	"github.com/spetersoncode/stride/event"
	"github.com/spetersoncode/stride/llm"
	"github.com/spetersoncode/stride/llm/anthropic"
	"github.com/spetersoncode/stride/llm/google"
	"github.com/spetersoncode/stride/llm/openai"
	"github.com/spetersoncode/stride/mcp"
	"github.com/spetersoncode/stride/memory"
	"github.com/spetersoncode/stride/tool"
)

func main() {
	godotenv.Load()
	ctx := context.Background()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: demo <query>")
		os.Exit(1)
	}
	query := strings.Join(os.Args[1:], " ")

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client, label, err := pickClient(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("provider: %s\n", label)

	providers := []tool.Provider{setupLocalTools()}
	if p := connectMCP(ctx, logger); p != nil {
		defer p.Close()
		providers = append(providers, p)
	}

	registry := tool.NewRegistry(ctx, providers...)
	for name, derr := range registry.Unavailable() {
		logger.Warn("provider unavailable", zap.String("provider", name), zap.Error(derr))
	}
	fmt.Printf("tools: %d\n", registry.Len())

	opts := []agent.Option{agent.WithLogger(logger)}
	if path := os.Getenv("MEMORY_DB"); path != "" {
		store, serr := memory.NewSQLiteStore(path)
		if serr != nil {
			fmt.Fprintf(os.Stderr, "memory: %v\n", serr)
			os.Exit(1)
		}
		defer store.Close()
		opts = append(opts, agent.WithMemory(store))
	}

	a := agent.New(client, registry)

	for ev := range a.RunStream(ctx, query, opts...) {
		switch ev.Type {
		case event.Perceived:
			fmt.Printf("[%d] perceived: confidence=%.2f\n", ev.Iteration, ev.WorldState.Confidence)
		case event.PlanProposed:
			fmt.Printf("[%d] plan revision %d (%d steps)\n", ev.Iteration, ev.Plan.Revision, len(ev.Plan.Steps))
		case event.PlanRejected:
			fmt.Printf("[%d] plan rejected: %v\n", ev.Iteration, ev.Error)
		case event.StepExecuting:
			fmt.Printf("[%d] step %d: %s\n", ev.Iteration, ev.Step.Index, ev.Step.Tool)
		case event.StepResult:
			if ev.Result.OK {
				fmt.Printf("[%d] step %d ok: %s\n", ev.Iteration, ev.Result.StepIndex, ev.Result.Output)
			} else {
				fmt.Printf("[%d] step %d failed: %s\n", ev.Iteration, ev.Result.StepIndex, ev.Result.Failure.String())
			}
		case event.RunEnd:
			s := ev.Session
			fmt.Printf("\nstatus: %s (%d iterations)\n", s.Status, len(s.Iterations))
			if s.FinalAnswer != "" {
				fmt.Printf("answer: %s\n", s.FinalAnswer)
			}
			if s.LastError != "" {
				fmt.Printf("error: %s\n", s.LastError)
			}
		}
	}
}

// pickClient selects the LLM provider from whichever API key is set,
// preferring Anthropic, then OpenAI, then Google.
func pickClient(ctx context.Context) (llm.Client, string, error) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return anthropic.New(key), "anthropic", nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return openai.New(key), "openai", nil
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c, err := google.New(ctx, key)
		if err != nil {
			return nil, "", fmt.Errorf("google client: %w", err)
		}
		return c, "google", nil
	}
	return nil, "", fmt.Errorf("no API key found; set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GOOGLE_API_KEY")
}

// connectMCP connects an optional MCP tool server named in the
// environment. Connection failures are logged, not fatal.
func connectMCP(ctx context.Context, logger *zap.Logger) *mcp.Provider {
	if url := os.Getenv("MCP_SSE_URL"); url != "" {
		p, err := mcp.NewSSEProvider(ctx, "mcp-sse", url)
		if err != nil {
			logger.Warn("mcp sse connection failed", zap.String("url", url), zap.Error(err))
			return nil
		}
		return p
	}
	if cmdline := os.Getenv("MCP_STDIO_CMD"); cmdline != "" {
		parts := strings.Fields(cmdline)
		p, err := mcp.NewStdioProvider(ctx, "mcp-stdio", parts[0], os.Environ(), parts[1:]...)
		if err != nil {
			logger.Warn("mcp stdio connection failed", zap.String("cmd", cmdline), zap.Error(err))
			return nil
		}
		return p
	}
	return nil
}
