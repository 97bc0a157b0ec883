package tool

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spetersoncode/stride"
)

// Handler executes one tool call. Arguments arrive already parsed into a
// map; the result content is returned as a string, or an error if the tool
// failed.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// localTool combines a descriptor with its handler.
type localTool struct {
	desc    stride.ToolDescriptor
	handler Handler
}

// LocalProvider exposes in-process Go functions as tools. It implements
// [Provider], so locally registered tools go through the same registry and
// executor path as remote ones.
type LocalProvider struct {
	name  string
	mu    sync.RWMutex
	tools map[string]localTool
}

// NewLocalProvider creates an empty local provider with the given name.
func NewLocalProvider(name string) *LocalProvider {
	return &LocalProvider{
		name:  name,
		tools: make(map[string]localTool),
	}
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return p.name }

// Register adds a tool with an explicit input schema and handler.
// Returns *AlreadyRegisteredError on a duplicate name.
func (p *LocalProvider) Register(name, description string, inputSchema json.RawMessage, h Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.tools[name]; exists {
		return &AlreadyRegisteredError{Name: name}
	}
	p.tools[name] = localTool{
		desc: stride.ToolDescriptor{
			Name:        name,
			Description: description,
			InputSchema: inputSchema,
			Provider:    p.name,
		},
		handler: h,
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (p *LocalProvider) MustRegister(name, description string, inputSchema json.RawMessage, h Handler) {
	if err := p.Register(name, description, inputSchema, h); err != nil {
		panic(err)
	}
}

// RegisterFunc registers a tool whose handler takes typed arguments. The
// argument map is round-tripped through JSON into T before the handler
// runs.
func RegisterFunc[T any](p *LocalProvider, name, description string, inputSchema json.RawMessage, fn func(ctx context.Context, args T) (string, error)) error {
	h := func(ctx context.Context, args map[string]any) (string, error) {
		data, err := json.Marshal(args)
		if err != nil {
			return "", err
		}
		var typed T
		if err := json.Unmarshal(data, &typed); err != nil {
			return "", err
		}
		return fn(ctx, typed)
	}
	return p.Register(name, description, inputSchema, h)
}

// MustRegisterFunc is like RegisterFunc but panics on error.
func MustRegisterFunc[T any](p *LocalProvider, name, description string, inputSchema json.RawMessage, fn func(ctx context.Context, args T) (string, error)) {
	if err := RegisterFunc(p, name, description, inputSchema, fn); err != nil {
		panic(err)
	}
}

// Describe implements Provider.
func (p *LocalProvider) Describe(_ context.Context) ([]stride.ToolDescriptor, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	descs := make([]stride.ToolDescriptor, 0, len(p.tools))
	for _, t := range p.tools {
		descs = append(descs, t.desc)
	}
	return descs, nil
}

// Invoke implements Provider.
func (p *LocalProvider) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	p.mu.RLock()
	t, ok := p.tools[name]
	p.mu.RUnlock()

	if !ok {
		return "", &NotFoundError{Name: name}
	}
	return t.handler(ctx, args)
}
