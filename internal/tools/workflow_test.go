package tools

import (
	"strings"
	"testing"

	"prdflow/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTemplates is an in-memory TemplateSource for handler tests.
type fakeTemplates struct {
	bodies map[string]string
}

func (f *fakeTemplates) Resolve(name string) string {
	if body, ok := f.bodies[name]; ok {
		return body
	}
	return "Template '" + name + "' is not available. Check the prdflow storage directory or run first-time setup again."
}

func (f *fakeTemplates) Describe(name string) string {
	return "Workflow template '" + name + "'"
}

func newWorkflowRegistry(t *testing.T, bodies map[string]string) *Registry {
	t.Helper()
	logger, _ := logging.NewTestLogger()
	r := NewRegistry()
	require.NoError(t, RegisterWorkflowTools(r, &fakeTemplates{bodies: bodies}, logger))
	return r
}

func TestRegisterWorkflowTools_Order(t *testing.T) {
	r := newWorkflowRegistry(t, nil)

	listed := r.List()
	require.Len(t, listed, 3)
	assert.Equal(t, "create-prd", listed[0].Name)
	assert.Equal(t, "generate-tasks", listed[1].Name)
	assert.Equal(t, "process-task-list", listed[2].Name)
}

func TestCreatePRD_CombinesTemplateAndArguments(t *testing.T) {
	r := newWorkflowRegistry(t, map[string]string{
		"create-prd": "# Rule: Generating a PRD",
	})

	result, terr := r.CallTool("create-prd", map[string]any{
		"featureDescription": "Add CSV export to the reports page",
	})
	require.Nil(t, terr)

	content := result.(map[string]any)["content"].(string)
	assert.Equal(t,
		"# Rule: Generating a PRD\n\n## Feature Request\n\nAdd CSV export to the reports page",
		content)

	meta := result.(map[string]any)["metadata"].(map[string]any)
	assert.Equal(t, "create-prd", meta["templateName"])
	assert.Equal(t, len("# Rule: Generating a PRD"), meta["templateLength"])
	assert.Equal(t, len(content), meta["combinedLength"])
}

func TestCreatePRD_OptionalContext(t *testing.T) {
	r := newWorkflowRegistry(t, map[string]string{"create-prd": "TEMPLATE"})

	result, terr := r.CallTool("create-prd", map[string]any{
		"featureDescription": "Export feature",
		"context":            "The reports page already paginates results",
	})
	require.Nil(t, terr)

	content := result.(map[string]any)["content"].(string)
	assert.Equal(t,
		"TEMPLATE\n\n## Feature Request\n\nExport feature\n\n## Additional Context\n\nThe reports page already paginates results",
		content)
}

func TestWorkflowTools_MissingRequired(t *testing.T) {
	r := newWorkflowRegistry(t, nil)

	tests := []struct {
		tool  string
		field string
	}{
		{"create-prd", "featureDescription"},
		{"generate-tasks", "prdContent"},
		{"process-task-list", "taskList"},
	}

	for _, tt := range tests {
		_, terr := r.CallTool(tt.tool, map[string]any{})
		require.NotNil(t, terr, tt.tool)
		assert.Equal(t, KindInvalidParams, terr.Kind)
		assert.Equal(t, "missing required parameter: "+tt.field, terr.Message)
	}
}

func TestWorkflowTools_InvalidArgumentValues(t *testing.T) {
	r := newWorkflowRegistry(t, nil)

	_, terr := r.CallTool("generate-tasks", map[string]any{"prdContent": ""})
	require.NotNil(t, terr)
	assert.Equal(t, KindInvalidParams, terr.Kind)
	assert.Contains(t, terr.Message, "empty or whitespace-only")

	_, terr = r.CallTool("process-task-list", map[string]any{"taskList": float64(1)})
	require.NotNil(t, terr)
	assert.Contains(t, terr.Message, "must be a string")
}

func TestWorkflowTools_PlaceholderWhenTemplateMissing(t *testing.T) {
	r := newWorkflowRegistry(t, map[string]string{}) // no templates resolvable

	result, terr := r.CallTool("generate-tasks", map[string]any{"prdContent": "# My PRD"})
	require.Nil(t, terr)

	content := result.(map[string]any)["content"].(string)
	assert.True(t, strings.HasPrefix(content, "Template 'generate-tasks' is not available"))
	assert.Contains(t, content, "\n\n## PRD\n\n# My PRD")
}
