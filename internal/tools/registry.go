// Package tools implements the provider registry and the dispatcher that
// every control surface funnels through. The dispatcher owns the uniform
// failure contract: an unknown operation, bad arguments, a handler error, or
// a handler panic all come back as a failed Result, never as a dropped
// request.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ptybridge/ptybridge/internal/types"
)

// Provider is a group of related tools sharing backing state.
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}, tctx *types.Context) (*types.Result, error)
}

// Registry maps tool IDs to their providers. Registration happens once at
// startup; lookups are concurrent.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider      // by service ID
	tools     map[string]toolBinding   // by tool ID
	defs      map[string]types.Service // by service ID
}

type toolBinding struct {
	provider Provider
	tool     types.Tool
	service  string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		tools:     make(map[string]toolBinding),
		defs:      make(map[string]types.Service),
	}
}

// Register adds a provider and indexes its tools. Tool IDs are global across
// providers; a collision is a programming error surfaced at startup.
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return fmt.Errorf("service ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[def.ID]; exists {
		return fmt.Errorf("service %q already registered", def.ID)
	}
	for _, tool := range def.Tools {
		if tool.ID == "" {
			return fmt.Errorf("service %q declares a tool with no ID", def.ID)
		}
		if existing, exists := r.tools[tool.ID]; exists {
			return fmt.Errorf("tool %q declared by both %q and %q", tool.ID, existing.service, def.ID)
		}
	}

	r.providers[def.ID] = provider
	r.defs[def.ID] = def
	for _, tool := range def.Tools {
		r.tools[tool.ID] = toolBinding{provider: provider, tool: tool, service: def.ID}
	}
	return nil
}

// Lookup resolves a tool ID.
func (r *Registry) Lookup(toolID string) (Provider, types.Tool, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.tools[toolID]
	return b.provider, b.tool, b.service, ok
}

// List returns all service definitions, optionally filtered by category,
// in ID order.
func (r *Registry) List(category *types.Category) []types.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var services []types.Service
	for _, def := range r.defs {
		if category == nil || def.Category == *category {
			services = append(services, def)
		}
	}
	sort.Slice(services, func(i, j int) bool { return services[i].ID < services[j].ID })
	return services
}

// Tools returns every tool definition across all services, in ID order.
func (r *Registry) Tools() []types.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Tool, 0, len(r.tools))
	for _, b := range r.tools {
		out = append(out, b.tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns registry statistics.
func (r *Registry) Stats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make(map[string]int)
	for _, def := range r.defs {
		categories[string(def.Category)]++
	}
	return map[string]interface{}{
		"total_services": len(r.defs),
		"total_tools":    len(r.tools),
		"categories":     categories,
	}
}
