package tool

import (
	"context"
	"sort"
	"sync"

	"github.com/spetersoncode/stride"
)

// entry pairs a discovered descriptor with the provider that owns it.
type entry struct {
	desc     stride.ToolDescriptor
	provider Provider
}

// Registry indexes the tools discovered from all configured providers and
// routes invocations to the owning provider. The index is built once at
// startup and is read-only afterwards, so a single Registry is safe to
// share across concurrent sessions. Reloading tools requires building a
// new Registry.
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]entry
	order       []string
	unavailable map[string]error
}

// NewRegistry queries every provider and indexes the discovered tools.
// A provider whose Describe call fails is recorded as unavailable and its
// tools are excluded; startup still succeeds with the remaining providers.
// When two providers expose the same tool name, the first provider wins.
func NewRegistry(ctx context.Context, providers ...Provider) *Registry {
	r := &Registry{
		tools:       make(map[string]entry),
		unavailable: make(map[string]error),
	}

	for _, p := range providers {
		descs, err := p.Describe(ctx)
		if err != nil {
			r.unavailable[p.Name()] = err
			continue
		}
		for _, d := range descs {
			if _, exists := r.tools[d.Name]; exists {
				continue
			}
			d.Provider = p.Name()
			r.tools[d.Name] = entry{desc: d, provider: p}
			r.order = append(r.order, d.Name)
		}
	}
	sort.Strings(r.order)

	return r
}

// Resolve returns the descriptor for the named tool, or *NotFoundError.
func (r *Registry) Resolve(name string) (stride.ToolDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tools[name]
	if !ok {
		return stride.ToolDescriptor{}, &NotFoundError{Name: name}
	}
	return e.desc, nil
}

// Has returns true if the named tool is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// List returns all discovered descriptors, sorted by tool name.
func (r *Registry) List() []stride.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]stride.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].desc)
	}
	return out
}

// Len returns the number of discovered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Unavailable reports the providers that failed discovery, keyed by
// provider name.
func (r *Registry) Unavailable() map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]error, len(r.unavailable))
	for k, v := range r.unavailable {
		out[k] = v
	}
	return out
}

// Invoke routes a tool call to the provider that owns the tool. Returns
// *NotFoundError if the tool is not registered; provider failures pass
// through as errors for the executor to classify.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", &NotFoundError{Name: name}
	}
	return e.provider.Invoke(ctx, name, args)
}
