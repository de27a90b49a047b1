package mcp

// Version is the JSON-RPC protocol version this server speaks.
const Version = "2.0"

// Supported methods. Anything else is answered with CodeMethodNotFound.
const (
	MethodToolsList = "tools/list"
	MethodToolsCall = "tools/call"
)

// JSON-RPC reserved error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request envelope. The server parses incoming
// lines generically to validate envelope shape; this struct is the typed
// form used by clients and tests.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope. Exactly one of Result or
// Error is populated. ID is always serialized, explicitly null for requests
// so malformed that no id could be extracted.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// errorResponse builds an error response with the given id.
func errorResponse(id any, code int, message string, data any) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	}
}

// resultResponse builds a success response with the given id.
func resultResponse(id any, result any) Response {
	return Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}
