// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package protocol defines the JSON-RPC 2.0 envelopes exchanged with callers
// and the upstream MCP server, plus the stable error taxonomy the bridge
// normalizes every failure into.
package protocol

import (
	"encoding/json"
	"fmt"
)

const (
	// Version is the JSON-RPC protocol version stamped on every envelope.
	Version = "2.0"

	// MethodToolsCall invokes a named tool on the upstream server.
	MethodToolsCall = "tools/call"
	// MethodToolsList enumerates upstream tools.
	MethodToolsList = "tools/list"

	// DefaultRequestID is used when an inbound call carries no id. The
	// upstream tolerates synthetic ids, so a missing id is never an error.
	DefaultRequestID = 1
)

// Request is an outbound JSON-RPC 2.0 request envelope. Params stays raw so
// passthrough calls are forwarded byte-for-byte.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response envelope. Result stays raw so that a
// successful upstream payload is re-emitted untouched; exactly one of Result
// and Error is set on anything the bridge returns.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the wire form of a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewRequest builds a request envelope, marshalling params when provided.
func NewRequest(method string, params any, id any) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		Method:  method,
		ID:      id,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params for %s: %w", method, err)
		}
		req.Params = data
	}
	return req, nil
}

// NewSuccessResponse wraps a raw result under the caller's id.
func NewSuccessResponse(id any, result json.RawMessage) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse wraps a wire error under the caller's id.
func NewErrorResponse(id any, rpcErr *Error) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   rpcErr,
	}
}
