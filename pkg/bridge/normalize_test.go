// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/protocol"
)

func TestNormalizeShapeInvariance(t *testing.T) {
	// Every known convention carrying the same SQL must yield the same
	// (tool, sql) pair.
	cases := []struct {
		name string
		raw  string
	}{
		{
			name: "direct sql parameter",
			raw:  `{"sql":"SELECT 1"}`,
		},
		{
			name: "flat arguments",
			raw:  `{"params":{"name":"query","arguments":{"sql":"SELECT 1"}}}`,
		},
		{
			name: "flat arguments with gateway-prefixed tool",
			raw:  `{"params":{"name":"secure-lambda-tacnode-target___query","arguments":{"sql":"SELECT 1"}}}`,
		},
		{
			name: "flat arguments with executeQuery alias",
			raw:  `{"params":{"name":"executeQuery","arguments":{"sql":"SELECT 1"}}}`,
		},
		{
			name: "nested envelope",
			raw: `{"params":{"name":"gateway-target___query","arguments":{
				"jsonrpc":"2.0","method":"tools/call",
				"params":{"name":"query","arguments":{"sql":"SELECT 1"}},"id":1}}}`,
		},
		{
			name: "lambda body wrapper with object",
			raw:  `{"body":{"params":{"name":"query","arguments":{"sql":"SELECT 1"}}}}`,
		},
		{
			name: "lambda body wrapper with string",
			raw:  `{"body":"{\"params\":{\"name\":\"query\",\"arguments\":{\"sql\":\"SELECT 1\"}}}"}`,
		},
	}

	n := NewNormalizer("query")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			call, shape, berr := n.Normalize([]byte(tc.raw))
			require.Nil(t, berr)
			assert.NotEmpty(t, shape)
			assert.Equal(t, protocol.MethodToolsCall, call.Method)
			assert.Equal(t, "query", call.Tool)
			require.NotNil(t, call.SQL)
			assert.Equal(t, "SELECT 1", *call.SQL)
		})
	}
}

func TestNormalizeNestedEnvelopeInnerIDWins(t *testing.T) {
	raw := `{"id":99,"params":{"name":"target___query","arguments":{
		"jsonrpc":"2.0","method":"tools/call",
		"params":{"name":"query","arguments":{"sql":"SELECT COUNT(*) FROM test"}},"id":7}}}`

	n := NewNormalizer("query")
	call, shape, berr := n.Normalize([]byte(raw))
	require.Nil(t, berr)

	assert.Equal(t, "nested_envelope", shape)
	require.NotNil(t, call.SQL)
	assert.Equal(t, "SELECT COUNT(*) FROM test", *call.SQL)
	assert.EqualValues(t, 7, call.RequestID)
}

func TestNormalizeNestedEnvelopeFallsBackToOuterID(t *testing.T) {
	raw := `{"id":99,"params":{"name":"query","arguments":{
		"jsonrpc":"2.0","method":"tools/call",
		"params":{"name":"query","arguments":{"sql":"SELECT 1"}}}}}`

	n := NewNormalizer("query")
	call, _, berr := n.Normalize([]byte(raw))
	require.Nil(t, berr)
	assert.EqualValues(t, 99, call.RequestID)
}

func TestNormalizeMissingIDDefaults(t *testing.T) {
	n := NewNormalizer("query")
	call, _, berr := n.Normalize([]byte(`{"sql":"SELECT 1"}`))
	require.Nil(t, berr)
	assert.Equal(t, protocol.DefaultRequestID, call.RequestID)
}

func TestNormalizeEmptySQLAccepted(t *testing.T) {
	// The upstream is the authority on SQL validity; an empty statement is
	// forwarded, not rejected.
	n := NewNormalizer("query")
	call, _, berr := n.Normalize([]byte(`{"params":{"name":"query","arguments":{"sql":""}}}`))
	require.Nil(t, berr)
	require.NotNil(t, call.SQL)
	assert.Equal(t, "", *call.SQL)
}

func TestNormalizeMethodPassthrough(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":"list-1","method":"tools/list"}`

	n := NewNormalizer("query")
	call, shape, berr := n.Normalize([]byte(raw))
	require.Nil(t, berr)

	assert.Equal(t, "method_passthrough", shape)
	assert.Equal(t, protocol.MethodToolsList, call.Method)
	assert.Nil(t, call.SQL)
	assert.Equal(t, "list-1", call.RequestID)
}

func TestNormalizeToolCallWithoutSQL(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"target___listSchemas","arguments":{}}}`

	n := NewNormalizer("query")
	call, shape, berr := n.Normalize([]byte(raw))
	require.Nil(t, berr)

	assert.Equal(t, "tool_call", shape)
	assert.Equal(t, "listSchemas", call.Tool)
	assert.Nil(t, call.SQL)
	assert.JSONEq(t, `{"name":"target___listSchemas","arguments":{}}`, string(call.Params))
}

func TestNormalizeRejectsUnrecognizedShape(t *testing.T) {
	n := NewNormalizer("query")

	_, _, berr := n.Normalize([]byte(`{"something":"else"}`))
	require.NotNil(t, berr)
	assert.Equal(t, protocol.KindMalformedRequest, berr.Kind)
	assert.Equal(t, -32600, berr.RPCError().Code)
	// The rejected document is preserved in the detail, never dropped.
	assert.Contains(t, berr.Message, `"something"`)
}

func TestNormalizeRejectsNonObject(t *testing.T) {
	n := NewNormalizer("query")

	_, _, berr := n.Normalize([]byte(`[1,2,3]`))
	require.NotNil(t, berr)
	assert.Equal(t, protocol.KindMalformedRequest, berr.Kind)
}

func TestNormalizeRejectsUndecodableBody(t *testing.T) {
	n := NewNormalizer("query")

	_, _, berr := n.Normalize([]byte(`{"body":"not json at all"}`))
	require.NotNil(t, berr)
	assert.Equal(t, protocol.KindMalformedRequest, berr.Kind)
}

func TestEnvelopeCanonicalForm(t *testing.T) {
	sql := "SELECT 1"
	call := &CanonicalCall{
		Method:    protocol.MethodToolsCall,
		Tool:      "query",
		SQL:       &sql,
		RequestID: 5,
	}

	env, err := call.envelope()
	require.NoError(t, err)

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"query","arguments":{"sql":"SELECT 1"}}}`,
		string(data))
}
