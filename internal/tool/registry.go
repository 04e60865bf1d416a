package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// catalogTTL is how long the catalog endpoint's rendered descriptor list is
// cached before a registration-order re-render (SPEC_FULL.md §4.2).
const catalogTTL = 10 * time.Second

// NamePattern is the tool-name invariant named in SPEC_FULL.md §3: a name
// must start with a letter or underscore and contain only letters, digits,
// and underscores.
var NamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Registry is a constant-time name->handler lookup. Registration order is
// preserved for the catalog endpoint.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	order   []string

	catalogMu     sync.Mutex
	catalogAt     time.Time
	cachedCatalog []types.ToolDescriptor
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a tool under descriptor.Name. Re-registering a name replaces
// its handler but keeps its original position in the catalog ordering.
// Register panics if descriptor.Name does not satisfy NamePattern: tool
// names are a compile-time registration detail, not user input, so a
// mismatch is a programming error rather than a recoverable one.
func (r *Registry) Register(descriptor types.ToolDescriptor, handler Handler) {
	if !NamePattern.MatchString(descriptor.Name) {
		panic(fmt.Sprintf("tool: invalid tool name %q: must match %s", descriptor.Name, NamePattern.String()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[descriptor.Name]; !exists {
		r.order = append(r.order, descriptor.Name)
	}
	r.entries[descriptor.Name] = entry{descriptor: descriptor, handler: handler}

	r.catalogMu.Lock()
	r.catalogAt = time.Time{}
	r.catalogMu.Unlock()
}

// Lookup returns the handler registered under name, or ok=false on a miss.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// Catalog returns the tool descriptors in registration order, cached for
// catalogTTL.
func (r *Registry) Catalog() []types.ToolDescriptor {
	r.catalogMu.Lock()
	defer r.catalogMu.Unlock()

	if time.Since(r.catalogAt) < catalogTTL && r.cachedCatalog != nil {
		return r.cachedCatalog
	}

	r.mu.RLock()
	descriptors := make([]types.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.entries[name].descriptor)
	}
	r.mu.RUnlock()

	r.cachedCatalog = descriptors
	r.catalogAt = time.Now()
	return descriptors
}

// Execute implements the execute flow of SPEC_FULL.md §4.2: lookup, invoke,
// map outcome. Parameter-shape validation against a named schema happens in
// internal/validator, upstream of this call.
func (r *Registry) Execute(ctx context.Context, name string, params json.RawMessage) (any, error) {
	handler, ok := r.Lookup(name)
	if !ok {
		return nil, apperr.New(apperr.Validation, "unknown tool %q", name)
	}
	return handler(ctx, params)
}
