// Package mcp implements the Model Context Protocol server transport:
// a JSON-RPC 2.0 request/response loop over newline-delimited JSON.
//
// The server reads one request per line, validates the envelope, dispatches
// tools/list and tools/call against a tool registry, and writes exactly one
// response line per request, in arrival order. Stdout carries only protocol
// frames; all logging goes elsewhere (see internal/logging).
package mcp
