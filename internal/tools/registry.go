// Package tools implements the prdflow tool registry and the tool handlers
// exposed over MCP: the append tool and the three workflow templating tools.
//
// The registry is built once at startup and is read-only while the server
// loop runs; no locking is needed because all mutation happens before the
// first request is dispatched.
package tools

import (
	"fmt"
)

// Handler executes a tool call with the declared arguments. It returns the
// raw result value or a *ToolError; it never panics for bad input.
type Handler func(args map[string]any) (any, *ToolError)

// Descriptor describes one registered tool. The JSON tags define the wire
// shape used by tools/list.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	Handler Handler `json:"-"`
}

// Registry maintains the set of invocable tools in registration order.
type Registry struct {
	order   []string
	entries map[string]Descriptor
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Descriptor),
	}
}

// Register adds a tool to the registry. Registering a name twice is an error;
// enumeration order follows registration order.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.entries[d.Name]; exists {
		return fmt.Errorf("tool %q is already registered", d.Name)
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %q has no handler", d.Name)
	}

	r.entries[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(name string) error {
	if _, exists := r.entries[name]; !exists {
		return fmt.Errorf("tool %q is not registered", name)
	}

	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the descriptor for a tool name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.entries[name]
	return d, ok
}

// List returns all descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// CallTool validates and dispatches a tool invocation.
//
// Validation here covers only what the schema declares: every required
// field must be present in arguments. Value-level validation belongs to the
// handlers, which report failures through their own structured errors.
//
// The handler's return value is normalized into a uniform shape: a result
// that already carries a "content" field passes through unchanged, anything
// else is wrapped as {content: value}. Handlers can therefore evolve
// independently from the wire format.
func (r *Registry) CallTool(name string, args map[string]any) (any, *ToolError) {
	d, ok := r.entries[name]
	if !ok {
		return nil, NotFoundError(fmt.Sprintf("Tool '%s' not found", name))
	}

	for _, field := range requiredFields(d.InputSchema) {
		if _, present := args[field]; !present {
			return nil, InvalidParamsError(fmt.Sprintf("missing required parameter: %s", field))
		}
	}

	result, terr := d.Handler(declaredArgs(d.InputSchema, args))
	if terr != nil {
		return nil, terr
	}

	if m, ok := result.(map[string]any); ok {
		if _, has := m["content"]; has {
			return m, nil
		}
	}
	return map[string]any{"content": result}, nil
}

// requiredFields extracts the "required" list from a JSON-schema style
// input schema.
func requiredFields(schema map[string]any) []string {
	raw, ok := schema["required"]
	if !ok {
		return nil
	}

	var fields []string
	switch v := raw.(type) {
	case []string:
		fields = v
	case []any:
		for _, f := range v {
			if s, ok := f.(string); ok {
				fields = append(fields, s)
			}
		}
	}
	return fields
}

// declaredArgs filters arguments down to the parameters the schema declares,
// so handlers never see undeclared input.
func declaredArgs(schema map[string]any, args map[string]any) map[string]any {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return map[string]any{}
	}

	filtered := make(map[string]any, len(props))
	for name := range props {
		if v, present := args[name]; present {
			filtered[name] = v
		}
	}
	return filtered
}
