// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/protocol"
)

// CanonicalCall is the bridge's shape-independent form of an inbound tool
// invocation. SQL is nil for passthrough calls; an empty non-nil SQL is a
// valid statement and is forwarded as-is (the upstream is the authority on
// validity).
type CanonicalCall struct {
	Method    string
	Tool      string
	SQL       *string
	Params    json.RawMessage
	RequestID any
}

// toolCallParams is the canonical params object for SQL tool calls.
type toolCallParams struct {
	Name      string    `json:"name"`
	Arguments queryArgs `json:"arguments"`
}

type queryArgs struct {
	SQL string `json:"sql"`
}

// envelope builds the canonical upstream request for the call.
func (c *CanonicalCall) envelope() (*protocol.Request, error) {
	if c.SQL != nil {
		params := toolCallParams{
			Name:      c.Tool,
			Arguments: queryArgs{SQL: *c.SQL},
		}
		return protocol.NewRequest(protocol.MethodToolsCall, params, c.RequestID)
	}
	return &protocol.Request{
		JSONRPC: protocol.Version,
		ID:      c.RequestID,
		Method:  c.Method,
		Params:  c.Params,
	}, nil
}

// inboundDoc is the loosely decoded inbound document. Every known convention
// is a projection of these fields.
type inboundDoc struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	SQL     *string         `json:"sql"`
	Params  json.RawMessage `json:"params"`
	Body    json.RawMessage `json:"body"`
}

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// callParams decodes the params member, or nil when absent or not an object.
func (d *inboundDoc) callParams() *callParams {
	if len(d.Params) == 0 {
		return nil
	}
	var p callParams
	if err := json.Unmarshal(d.Params, &p); err != nil {
		return nil
	}
	return &p
}

// shapeMatcher recognizes one inbound calling convention. Matchers run in
// priority order and the first match wins, so a new convention is appended
// without touching existing ones.
type shapeMatcher interface {
	name() string
	match(n *Normalizer, doc *inboundDoc) (*CanonicalCall, bool)
}

// Normalizer converts heterogeneous inbound calls into CanonicalCalls.
type Normalizer struct {
	defaultTool string
	matchers    []shapeMatcher
}

// NewNormalizer constructs a normalizer with the known shape matchers. The
// ordering reflects the precedence the gateway traffic established: direct
// SQL parameter, flat arguments, nested envelope, generic tool call, then
// method passthrough.
func NewNormalizer(defaultTool string) *Normalizer {
	return &Normalizer{
		defaultTool: defaultTool,
		matchers: []shapeMatcher{
			directSQLShape{},
			flatArgumentsShape{},
			nestedEnvelopeShape{},
			toolCallShape{},
			methodPassthroughShape{},
		},
	}
}

// Normalize extracts a CanonicalCall from raw, reporting the matched shape
// name for diagnostics. Unrecognized shapes fail with MalformedRequest; the
// offending document is preserved in the error detail, never dropped.
func (n *Normalizer) Normalize(raw []byte) (*CanonicalCall, string, *protocol.BridgeError) {
	var doc inboundDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, "", protocol.WrapBridgeError(protocol.KindMalformedRequest, err,
			"inbound call is not a JSON object: %s", excerpt(raw))
	}

	unwrapped, err := unwrapLambdaBody(&doc)
	if err != nil {
		return nil, "", protocol.WrapBridgeError(protocol.KindMalformedRequest, err,
			"inbound body member is not decodable JSON: %s", excerpt(doc.Body))
	}

	for _, m := range n.matchers {
		if call, ok := m.match(n, unwrapped); ok {
			return call, m.name(), nil
		}
	}

	return nil, "", protocol.NewBridgeError(protocol.KindMalformedRequest,
		"unrecognized inbound call shape: %s", excerpt(raw))
}

// unwrapLambdaBody peels one Lambda-style event wrapper: a body member that
// holds either a JSON string or a JSON object containing the real call.
func unwrapLambdaBody(doc *inboundDoc) (*inboundDoc, error) {
	payload := bytes.TrimSpace(doc.Body)
	if len(payload) == 0 {
		return doc, nil
	}
	if payload[0] == '"' {
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, err
		}
		payload = []byte(s)
	}
	var inner inboundDoc
	if err := json.Unmarshal(payload, &inner); err != nil {
		return nil, err
	}
	return &inner, nil
}

// canonicalTool maps an inbound tool name to the upstream tool. Gateway
// targets prefix tool names ("<target>___query"), and older callers used the
// executeQuery alias; both resolve to the configured default tool.
func (n *Normalizer) canonicalTool(name string) string {
	if i := strings.LastIndex(name, "___"); i >= 0 {
		name = name[i+3:]
	}
	switch name {
	case "", "executeQuery":
		return n.defaultTool
	}
	return name
}

// idOrDefault substitutes the stable placeholder id when the caller sent none.
func idOrDefault(id any) any {
	if id == nil {
		return protocol.DefaultRequestID
	}
	return id
}

// directSQLShape matches a bare top-level sql string, the form the gateway
// sends when invoking a target with direct parameters.
type directSQLShape struct{}

func (directSQLShape) name() string { return "direct_sql" }

func (directSQLShape) match(n *Normalizer, doc *inboundDoc) (*CanonicalCall, bool) {
	if doc.SQL == nil {
		return nil, false
	}
	return &CanonicalCall{
		Method:    protocol.MethodToolsCall,
		Tool:      n.defaultTool,
		SQL:       doc.SQL,
		RequestID: idOrDefault(doc.ID),
	}, true
}

// flatArgumentsShape matches params.arguments.sql directly under the call.
type flatArgumentsShape struct{}

func (flatArgumentsShape) name() string { return "flat_arguments" }

func (flatArgumentsShape) match(n *Normalizer, doc *inboundDoc) (*CanonicalCall, bool) {
	p := doc.callParams()
	if p == nil || len(p.Arguments) == 0 {
		return nil, false
	}
	var args struct {
		SQL *string `json:"sql"`
	}
	if err := json.Unmarshal(p.Arguments, &args); err != nil || args.SQL == nil {
		return nil, false
	}
	return &CanonicalCall{
		Method:    protocol.MethodToolsCall,
		Tool:      n.canonicalTool(p.Name),
		SQL:       args.SQL,
		RequestID: idOrDefault(doc.ID),
	}, true
}

// nestedEnvelopeShape matches a complete JSON-RPC envelope wrapped inside
// params.arguments, one of the conventions the gateway was observed sending.
// The inner id wins over the outer one when present.
type nestedEnvelopeShape struct{}

func (nestedEnvelopeShape) name() string { return "nested_envelope" }

func (nestedEnvelopeShape) match(n *Normalizer, doc *inboundDoc) (*CanonicalCall, bool) {
	p := doc.callParams()
	if p == nil || len(p.Arguments) == 0 {
		return nil, false
	}
	var env struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		ID      any    `json:"id"`
		Params  struct {
			Name      string `json:"name"`
			Arguments struct {
				SQL *string `json:"sql"`
			} `json:"arguments"`
		} `json:"params"`
	}
	if err := json.Unmarshal(p.Arguments, &env); err != nil {
		return nil, false
	}
	if env.JSONRPC != protocol.Version || env.Method != protocol.MethodToolsCall || env.Params.Arguments.SQL == nil {
		return nil, false
	}
	id := env.ID
	if id == nil {
		id = doc.ID
	}
	return &CanonicalCall{
		Method:    protocol.MethodToolsCall,
		Tool:      n.canonicalTool(env.Params.Name),
		SQL:       env.Params.Arguments.SQL,
		RequestID: idOrDefault(id),
	}, true
}

// toolCallShape matches a tools/call naming a tool but carrying no SQL, such
// as the REST-backed schema listing tool. Params are kept raw so that an
// upstream forward is byte-preserving.
type toolCallShape struct{}

func (toolCallShape) name() string { return "tool_call" }

func (toolCallShape) match(n *Normalizer, doc *inboundDoc) (*CanonicalCall, bool) {
	if doc.Method != "" && doc.Method != protocol.MethodToolsCall {
		return nil, false
	}
	p := doc.callParams()
	if p == nil || p.Name == "" {
		return nil, false
	}
	return &CanonicalCall{
		Method:    protocol.MethodToolsCall,
		Tool:      n.canonicalTool(p.Name),
		Params:    doc.Params,
		RequestID: idOrDefault(doc.ID),
	}, true
}

// methodPassthroughShape matches any remaining well-formed JSON-RPC call
// (tools/list, initialize, ping) and forwards method and params untouched.
type methodPassthroughShape struct{}

func (methodPassthroughShape) name() string { return "method_passthrough" }

func (methodPassthroughShape) match(_ *Normalizer, doc *inboundDoc) (*CanonicalCall, bool) {
	if doc.Method == "" {
		return nil, false
	}
	return &CanonicalCall{
		Method:    doc.Method,
		Params:    doc.Params,
		RequestID: idOrDefault(doc.ID),
	}, true
}
