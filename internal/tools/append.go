package tools

import (
	"fmt"
	"strings"
	"time"

	"prdflow/internal/logging"
	"prdflow/internal/validation"
)

// AppendErrorCode is the domain error code carried by every failure of the
// append tool, inside the handler-level error payload.
const AppendErrorCode = "APPEND_ERROR"

// AppendToolName is the wire name of the append tool.
const AppendToolName = "append-to-create-prd"

// FileAccessor is the read-only file access capability the append tool
// consumes. pkg/fileops provides the production implementation.
type FileAccessor interface {
	Exists(path string) bool
	ReadText(path string) (string, error)
}

// AppendTool reads a fixed reference document and returns it with a
// caller-supplied string appended after a blank line. It performs no writes;
// the reference document is treated as read-only shared state.
type AppendTool struct {
	docPath string
	fs      FileAccessor
	logger  *logging.AppLogger
}

// NewAppendTool creates the append tool over the given reference document.
func NewAppendTool(docPath string, fs FileAccessor, logger *logging.AppLogger) *AppendTool {
	return &AppendTool{
		docPath: docPath,
		fs:      fs,
		logger:  logger,
	}
}

// Descriptor returns the registry descriptor for the append tool.
func (t *AppendTool) Descriptor() Descriptor {
	return Descriptor{
		Name:        AppendToolName,
		Description: "Append a string to the create-prd reference document and return the combined text",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"stringToAppend": map[string]any{
					"type":        "string",
					"description": "Text appended to the reference document after a blank line",
					"maxLength":   validation.MaxStringLength,
				},
			},
			"required": []string{"stringToAppend"},
		},
		Metadata: map[string]any{
			"readOnly": true,
			"document": t.docPath,
		},
		Handler: t.Handle,
	}
}

// Handle executes one append call. It is stateless: given the same document
// content and input, repeated calls produce byte-for-byte identical output.
func (t *AppendTool) Handle(args map[string]any) (any, *ToolError) {
	start := time.Now()

	res := validation.StringArg("stringToAppend", args["stringToAppend"])
	if !res.Valid {
		t.logger.Debug("Append input rejected", "reason", res.Message)
		return nil, t.failure(res.Message, res)
	}

	if !t.fs.Exists(t.docPath) {
		return nil, t.failure(
			fmt.Sprintf("reference document not accessible: %s does not exist", t.docPath), res)
	}

	doc, err := t.fs.ReadText(t.docPath)
	if err != nil {
		return nil, t.failure(
			fmt.Sprintf("reference document not accessible: %v", err), res)
	}

	if strings.TrimSpace(doc) == "" {
		return nil, t.failure("reference document is empty or whitespace-only", res)
	}

	combined := doc + "\n\n" + res.Cleaned

	t.logger.Debug("Append completed",
		"documentSize", len(doc),
		"appendedLength", len(res.Cleaned),
	)
	t.logger.LogPerformance("append-to-create-prd", start)

	return map[string]any{
		"content": combined,
		"metadata": map[string]any{
			"timestamp":            time.Now().UTC().Format(time.RFC3339),
			"combinedLength":       len(combined),
			"originalFileSize":     len(doc),
			"appendedStringLength": len(res.Cleaned),
			"validation": map[string]any{
				"originalLength": res.OriginalLength,
				"cleanedLength":  len(res.Cleaned),
			},
		},
	}, nil
}

// failure builds the structured append error, carrying the input length and
// type observed at the point of failure.
func (t *AppendTool) failure(message string, res validation.ValidationResult) *ToolError {
	return HandlerError(AppendErrorCode, message, map[string]any{
		"inputLength": res.OriginalLength,
		"inputType":   res.InputType,
	})
}
