package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticHandler(result any) Handler {
	return func(args map[string]any) (any, *ToolError) {
		return result, nil
	}
}

func descriptorNamed(name string, handler Handler) Descriptor {
	return Descriptor{
		Name:        name,
		Description: "test tool " + name,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: handler,
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(descriptorNamed("alpha", staticHandler("ok"))))

	err := r.Register(descriptorNamed("alpha", staticHandler("ok")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegister_Invalid(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.Register(descriptorNamed("", staticHandler("ok"))), "empty name")
	assert.Error(t, r.Register(descriptorNamed("no-handler", nil)), "nil handler")
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(descriptorNamed("alpha", staticHandler("ok"))))

	require.NoError(t, r.Unregister("alpha"))
	_, ok := r.Get("alpha")
	assert.False(t, ok)

	err := r.Unregister("alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestList_RegistrationOrder(t *testing.T) {
	r := NewRegistry()

	names := []string{"zeta", "alpha", "mu", "beta"}
	for _, name := range names {
		require.NoError(t, r.Register(descriptorNamed(name, staticHandler("ok"))))
	}

	listed := r.List()
	require.Len(t, listed, len(names))
	for i, d := range listed {
		assert.Equal(t, names[i], d.Name, "position %d", i)
	}

	// Re-registering after unregister moves the tool to the end
	require.NoError(t, r.Unregister("zeta"))
	require.NoError(t, r.Register(descriptorNamed("zeta", staticHandler("ok"))))
	listed = r.List()
	assert.Equal(t, "zeta", listed[len(listed)-1].Name)
}

func TestCallTool_NotFound_NeverInvokesHandler(t *testing.T) {
	r := NewRegistry()

	invoked := false
	require.NoError(t, r.Register(descriptorNamed("alpha", func(args map[string]any) (any, *ToolError) {
		invoked = true
		return "ok", nil
	})))

	_, terr := r.CallTool("missing", map[string]any{})
	require.NotNil(t, terr)
	assert.Equal(t, KindNotFound, terr.Kind)
	assert.Equal(t, "Tool 'missing' not found", terr.Message)
	assert.False(t, invoked)
}

func TestCallTool_MissingRequiredParameter(t *testing.T) {
	r := NewRegistry()

	d := descriptorNamed("alpha", staticHandler("ok"))
	d.InputSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"first":  map[string]any{"type": "string"},
			"second": map[string]any{"type": "string"},
		},
		"required": []string{"first", "second"},
	}
	require.NoError(t, r.Register(d))

	_, terr := r.CallTool("alpha", map[string]any{"first": "present"})
	require.NotNil(t, terr)
	assert.Equal(t, KindInvalidParams, terr.Kind)
	assert.Equal(t, "missing required parameter: second", terr.Message)

	// Explicit null still counts as present for the schema check;
	// value validation is the handler's job.
	_, terr = r.CallTool("alpha", map[string]any{"first": "a", "second": nil})
	assert.Nil(t, terr)
}

func TestCallTool_PassesOnlyDeclaredParameters(t *testing.T) {
	r := NewRegistry()

	var seen map[string]any
	d := descriptorNamed("alpha", func(args map[string]any) (any, *ToolError) {
		seen = args
		return "ok", nil
	})
	d.InputSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"declared": map[string]any{"type": "string"},
		},
	}
	require.NoError(t, r.Register(d))

	_, terr := r.CallTool("alpha", map[string]any{"declared": "yes", "undeclared": "no"})
	require.Nil(t, terr)
	assert.Equal(t, map[string]any{"declared": "yes"}, seen)
}

func TestCallTool_NormalizesResult(t *testing.T) {
	r := NewRegistry()

	// Raw values get wrapped as {content: value}
	require.NoError(t, r.Register(descriptorNamed("raw", staticHandler("plain text"))))
	result, terr := r.CallTool("raw", map[string]any{})
	require.Nil(t, terr)
	assert.Equal(t, map[string]any{"content": "plain text"}, result)

	// Results already carrying content pass through unchanged
	shaped := map[string]any{"content": "text", "metadata": map[string]any{"k": "v"}}
	require.NoError(t, r.Register(descriptorNamed("shaped", staticHandler(shaped))))
	result, terr = r.CallTool("shaped", map[string]any{})
	require.Nil(t, terr)
	assert.Equal(t, shaped, result)

	// Maps without a content field are wrapped too
	bare := map[string]any{"value": 1}
	require.NoError(t, r.Register(descriptorNamed("bare", staticHandler(bare))))
	result, terr = r.CallTool("bare", map[string]any{})
	require.Nil(t, terr)
	assert.Equal(t, map[string]any{"content": bare}, result)
}

func TestCallTool_PropagatesHandlerError(t *testing.T) {
	r := NewRegistry()

	handlerErr := HandlerError("APPEND_ERROR", "something broke", map[string]any{"inputLength": 3})
	require.NoError(t, r.Register(descriptorNamed("failing", func(args map[string]any) (any, *ToolError) {
		return nil, handlerErr
	})))

	_, terr := r.CallTool("failing", map[string]any{})
	require.NotNil(t, terr)
	assert.Equal(t, KindHandler, terr.Kind)
	assert.Equal(t, "something broke", terr.Message)
	assert.Equal(t, "APPEND_ERROR", terr.Code)
}
