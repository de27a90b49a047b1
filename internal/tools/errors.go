package tools

// ErrorKind classifies tool-level failures so the protocol layer can map
// them onto JSON-RPC error codes without inspecting messages.
type ErrorKind int

const (
	// KindNotFound: the requested tool is not registered.
	KindNotFound ErrorKind = iota
	// KindInvalidParams: a declared parameter is missing or malformed.
	KindInvalidParams
	// KindHandler: the handler itself failed; carries a domain code and
	// details for the error payload.
	KindHandler
)

// ToolError is the structured failure value returned by registry operations
// and tool handlers. Exactly one is produced per failed call; the dispatch
// boundary converts it to a wire error exactly once.
type ToolError struct {
	Kind    ErrorKind
	Message string
	// Code is the domain error code (for example "APPEND_ERROR"),
	// set for KindHandler failures.
	Code string
	// Details carries structured context (input length, input type, ...)
	// included in the wire error data.
	Details map[string]any
}

// Error implements the error interface.
func (e *ToolError) Error() string { return e.Message }

// NotFoundError builds a tool-not-found failure.
func NotFoundError(message string) *ToolError {
	return &ToolError{Kind: KindNotFound, Message: message}
}

// InvalidParamsError builds a missing/malformed parameter failure.
func InvalidParamsError(message string) *ToolError {
	return &ToolError{Kind: KindInvalidParams, Message: message}
}

// HandlerError builds a handler-level failure with a domain code and
// structured details.
func HandlerError(code, message string, details map[string]any) *ToolError {
	return &ToolError{Kind: KindHandler, Message: message, Code: code, Details: details}
}
