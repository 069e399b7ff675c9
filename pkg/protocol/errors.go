// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package protocol

import (
	"errors"
	"fmt"
)

// Kind classifies where in the bridge pipeline a failure occurred. The wire
// codes are stable and must never be reused for a different meaning.
type Kind int

const (
	// KindMalformedRequest marks an inbound shape the normalizer cannot
	// recognize or a missing required field.
	KindMalformedRequest Kind = iota
	// KindTransport marks connection refusal, DNS failure, or timeout on
	// the upstream call.
	KindTransport
	// KindUpstreamHTTP marks a non-2xx HTTP status from the upstream.
	KindUpstreamHTTP
	// KindResponseParse marks a body that is neither valid JSON nor valid
	// SSE-framed JSON.
	KindResponseParse
	// KindUpstreamReported marks a well-formed upstream error object or a
	// result flagged isError.
	KindUpstreamReported
	// KindInternal marks any other unexpected failure.
	KindInternal
)

var kindCodes = map[Kind]int{
	KindMalformedRequest: -32600,
	KindTransport:        -32000,
	KindUpstreamHTTP:     -32001,
	KindResponseParse:    -32002,
	KindUpstreamReported: -32003,
	KindInternal:         -32603,
}

var kindNames = map[Kind]string{
	KindMalformedRequest: "malformed_request",
	KindTransport:        "transport_error",
	KindUpstreamHTTP:     "upstream_http_error",
	KindResponseParse:    "response_parse_error",
	KindUpstreamReported: "upstream_reported_error",
	KindInternal:         "internal_error",
}

// Code returns the stable JSON-RPC error code for the kind.
func (k Kind) Code() int {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindInternal]
}

// String returns the log-friendly name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindInternal]
}

// BridgeError is a classified failure carrying the raw cause for logging while
// exposing only the stable code and message on the wire.
type BridgeError struct {
	Kind    Kind
	Message string
	cause   error
}

// NewBridgeError builds a classified error with a formatted message.
func NewBridgeError(kind Kind, format string, args ...any) *BridgeError {
	return &BridgeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapBridgeError builds a classified error retaining cause for errors.Is/As.
func WrapBridgeError(kind Kind, cause error, format string, args ...any) *BridgeError {
	return &BridgeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *BridgeError) Unwrap() error {
	return e.cause
}

// RPCError converts the classified failure to its wire form.
func (e *BridgeError) RPCError() *Error {
	return &Error{
		Code:    e.Kind.Code(),
		Message: e.Message,
	}
}

// Normalize coerces any error into a BridgeError. Failures already classified
// pass through; anything else becomes an internal error. Nil stays nil.
func Normalize(err error) *BridgeError {
	if err == nil {
		return nil
	}
	var berr *BridgeError
	if errors.As(err, &berr) {
		return berr
	}
	return WrapBridgeError(KindInternal, err, "unexpected failure: %v", err)
}
