package tools

import (
	"time"

	"prdflow/internal/logging"
	"prdflow/internal/templates"
	"prdflow/internal/validation"
)

// TemplateSource is the template-loading capability the workflow tools
// consume. internal/templates.Store provides the production implementation;
// Resolve always returns usable text (a placeholder when the template is
// unavailable).
type TemplateSource interface {
	Resolve(name string) string
	Describe(name string) string
}

// workflowSpec fixes the shape of one templating tool: which template it
// loads, which arguments it takes, and under which headings the caller's
// strings are appended.
type workflowSpec struct {
	toolName     string
	templateName string
	// args in declaration order; the first is required, the rest optional
	args []workflowArg
}

type workflowArg struct {
	name        string
	description string
	heading     string
	required    bool
}

var workflowSpecs = []workflowSpec{
	{
		toolName:     "create-prd",
		templateName: templates.NameCreatePRD,
		args: []workflowArg{
			{
				name:        "featureDescription",
				description: "Initial description of the feature to write a PRD for",
				heading:     "Feature Request",
				required:    true,
			},
			{
				name:        "context",
				description: "Additional context the PRD should take into account",
				heading:     "Additional Context",
			},
		},
	},
	{
		toolName:     "generate-tasks",
		templateName: templates.NameGenerateTasks,
		args: []workflowArg{
			{
				name:        "prdContent",
				description: "Full markdown content of the PRD to derive tasks from",
				heading:     "PRD",
				required:    true,
			},
		},
	},
	{
		toolName:     "process-task-list",
		templateName: templates.NameProcessTaskList,
		args: []workflowArg{
			{
				name:        "taskList",
				description: "Current markdown task list being worked through",
				heading:     "Task List",
				required:    true,
			},
		},
	},
}

// RegisterWorkflowTools registers the three PRD workflow templating tools:
// create-prd, generate-tasks and process-task-list. Descriptions come from
// the templates' frontmatter.
func RegisterWorkflowTools(r *Registry, source TemplateSource, logger *logging.AppLogger) error {
	for _, spec := range workflowSpecs {
		if err := r.Register(newWorkflowDescriptor(spec, source, logger)); err != nil {
			return err
		}
	}
	return nil
}

func newWorkflowDescriptor(spec workflowSpec, source TemplateSource, logger *logging.AppLogger) Descriptor {
	properties := make(map[string]any, len(spec.args))
	var required []string
	for _, arg := range spec.args {
		properties[arg.name] = map[string]any{
			"type":        "string",
			"description": arg.description,
			"maxLength":   validation.MaxStringLength,
		}
		if arg.required {
			required = append(required, arg.name)
		}
	}

	return Descriptor{
		Name:        spec.toolName,
		Description: source.Describe(spec.templateName),
		InputSchema: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
		Metadata: map[string]any{
			"template": spec.templateName,
		},
		Handler: workflowHandler(spec, source, logger),
	}
}

// workflowHandler builds the handler for one templating tool: load the
// template, append each supplied argument under its section heading, return
// the combined text plus metadata. The template is resolved on every call so
// storage-directory edits take effect without a restart.
func workflowHandler(spec workflowSpec, source TemplateSource, logger *logging.AppLogger) Handler {
	return func(args map[string]any) (any, *ToolError) {
		start := time.Now()

		body := source.Resolve(spec.templateName)
		combined := body

		for _, arg := range spec.args {
			value, present := args[arg.name]
			if !present {
				if arg.required {
					// The registry checks presence of required fields;
					// reaching here means the schema and argument table disagree.
					return nil, InvalidParamsError("missing required parameter: " + arg.name)
				}
				continue
			}

			res := validation.StringArg(arg.name, value)
			if !res.Valid {
				logger.Debug("Workflow input rejected", "tool", spec.toolName, "reason", res.Message)
				return nil, InvalidParamsError(res.Message)
			}

			combined += "\n\n## " + arg.heading + "\n\n" + res.Cleaned
		}

		logger.Debug("Workflow template rendered",
			"tool", spec.toolName,
			"template", spec.templateName,
			"combinedLength", len(combined),
		)
		logger.LogPerformance(spec.toolName, start)

		return map[string]any{
			"content": combined,
			"metadata": map[string]any{
				"timestamp":      time.Now().UTC().Format(time.RFC3339),
				"templateName":   spec.templateName,
				"templateLength": len(body),
				"combinedLength": len(combined),
			},
		}, nil
	}
}
