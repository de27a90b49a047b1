package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"prdflow/internal/logging"
	"prdflow/internal/tools"
)

// maxLineSize bounds a single request line. Requests are small JSON
// envelopes; an over-long line is answered as a parse error and discarded
// rather than buffered without bound.
const maxLineSize = 2 * 1024 * 1024

// Server reads newline-delimited JSON-RPC requests from a reader, dispatches
// them against a tool registry, and writes one response line per request to
// a writer. Requests are handled strictly in arrival order.
type Server struct {
	registry *tools.Registry
	logger   *logging.AppLogger
	in       io.Reader
	out      io.Writer
	session  string
}

// NewServer creates a server bound to the given streams. In production the
// streams are stdin and stdout; tests inject buffers.
func NewServer(registry *tools.Registry, logger *logging.AppLogger, in io.Reader, out io.Writer) *Server {
	return &Server{
		registry: registry,
		logger:   logger,
		in:       in,
		out:      out,
		session:  uuid.NewString(),
	}
}

// Run processes requests until the input stream is exhausted or the context
// is cancelled. EOF is the orderly shutdown signal and returns nil. A write
// failure on the output stream is fatal: the client can no longer hear us.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server ready", "session", s.session, "tools", len(s.registry.List()))

	reader := bufio.NewReaderSize(s.in, 64*1024)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("MCP server stopping", "session", s.session, "reason", ctx.Err())
			return nil
		default:
		}

		line, tooLong, err := readLine(reader)

		var resp *Response
		if tooLong {
			s.logger.Warn("request line exceeds size limit, discarding", "session", s.session, "limit", maxLineSize)
			r := errorResponse(nil, CodeParseError, "Parse error", nil)
			resp = &r
		} else if trimmed := strings.TrimSpace(line); trimmed != "" {
			r := s.handleLine(trimmed)
			resp = &r
		}

		if resp != nil {
			if werr := s.writeResponse(*resp); werr != nil {
				s.logger.Error("failed to write response", "session", s.session, "error", werr)
				return fmt.Errorf("writing response: %w", werr)
			}
		}

		if err == io.EOF {
			s.logger.Info("MCP server stopped", "session", s.session, "reason", "EOF")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading requests: %w", err)
		}
	}
}

// readLine reads one newline-terminated request line. A line longer than
// maxLineSize is drained through to its newline and reported as tooLong so
// the caller can answer it without the reader buffering it whole. The last
// line of the stream may arrive without a trailing newline, alongside io.EOF.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > maxLineSize {
				tooLong = true
				buf = nil
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if tooLong {
			return "", true, err
		}
		return string(buf), false, err
	}
}

// handleLine validates the request envelope and dispatches it. Envelope
// checks run in a fixed order so each malformed request gets a single,
// deterministic error: JSON syntax, then object shape, then jsonrpc
// version, then method, then id.
func (s *Server) handleLine(line string) Response {
	var raw any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		s.logger.Warn("unparseable request", "session", s.session, "error", err)
		return errorResponse(nil, CodeParseError, "Parse error", nil)
	}

	// Valid JSON that is not an object (array, number, string) parsed
	// fine; it is a malformed request, not a parse failure.
	msg, ok := raw.(map[string]any)
	if !ok {
		return errorResponse(nil, CodeInvalidRequest, "Invalid Request: request must be a JSON object", nil)
	}

	id := msg["id"]

	if v, ok := msg["jsonrpc"].(string); !ok || v != Version {
		return errorResponse(id, CodeInvalidRequest, `Invalid Request: jsonrpc must be "2.0"`, nil)
	}

	method, ok := msg["method"].(string)
	if !ok || method == "" {
		return errorResponse(id, CodeInvalidRequest, "Invalid Request: method must be a non-empty string", nil)
	}

	if id == nil {
		return errorResponse(nil, CodeInvalidRequest, "Invalid Request: id is required", nil)
	}

	return s.dispatch(id, method, msg["params"])
}

// dispatch routes a validated request to its method handler. A panic in any
// handler is contained here and surfaced as an internal error so one bad
// request cannot take the loop down.
func (s *Server) dispatch(id any, method string, params any) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "session", s.session, "method", method, "panic", r)
			resp = errorResponse(id, CodeInternalError, "Internal error", nil)
		}
	}()

	switch method {
	case MethodToolsList:
		return resultResponse(id, map[string]any{"tools": s.registry.List()})

	case MethodToolsCall:
		return s.callTool(id, params)

	default:
		return errorResponse(id, CodeMethodNotFound, fmt.Sprintf("Method '%s' not found", method), nil)
	}
}

// callTool unpacks tools/call params and invokes the registry.
func (s *Server) callTool(id any, params any) Response {
	p, ok := params.(map[string]any)
	if !ok {
		return errorResponse(id, CodeInvalidParams, "params must be an object", nil)
	}

	name, ok := p["name"].(string)
	if !ok || name == "" {
		return errorResponse(id, CodeInvalidParams, "params.name must be a non-empty string", nil)
	}

	args := map[string]any{}
	if raw, present := p["arguments"]; present {
		args, ok = raw.(map[string]any)
		if !ok {
			return errorResponse(id, CodeInvalidParams, "params.arguments must be an object", nil)
		}
	}

	s.logger.Debug("tool call", "session", s.session, "tool", name)

	result, terr := s.registry.CallTool(name, args)
	if terr != nil {
		return s.toolErrorResponse(id, terr)
	}
	return resultResponse(id, result)
}

// toolErrorResponse maps a tool error onto the wire. Lookup and parameter
// failures use the matching reserved codes; handler failures surface as
// internal errors carrying the structured domain error in data.
func (s *Server) toolErrorResponse(id any, terr *tools.ToolError) Response {
	switch terr.Kind {
	case tools.KindNotFound:
		return errorResponse(id, CodeMethodNotFound, terr.Message, nil)
	case tools.KindInvalidParams:
		return errorResponse(id, CodeInvalidParams, terr.Message, nil)
	default:
		var data any
		if terr.Code != "" || terr.Details != nil {
			data = map[string]any{
				"code":    terr.Code,
				"details": terr.Details,
			}
		}
		return errorResponse(id, CodeInternalError, terr.Message, data)
	}
}

// writeResponse serializes a response and writes it as a single
// newline-terminated line.
func (s *Server) writeResponse(resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		// Responses are built from JSON-safe values; treat this as a bug.
		return fmt.Errorf("marshaling response: %w", err)
	}
	_, err = s.out.Write(append(data, '\n'))
	return err
}
