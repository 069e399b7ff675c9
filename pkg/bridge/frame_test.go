// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/protocol"
)

const sampleResponse = `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"[{\"x\":1}]"}],"isError":false}}`

func TestParseFramePlainAndSSEAgree(t *testing.T) {
	plain := &rawUpstreamResponse{
		Status:      200,
		ContentType: "application/json",
		Body:        []byte(sampleResponse),
	}
	framed := &rawUpstreamResponse{
		Status:      200,
		ContentType: "text/event-stream; charset=utf-8",
		Body:        []byte("event: message\ndata: " + sampleResponse + "\n\n"),
	}

	fromPlain, berr := parseFrame(plain)
	require.Nil(t, berr)
	fromSSE, berr := parseFrame(framed)
	require.Nil(t, berr)

	assert.JSONEq(t, string(fromPlain.Result), string(fromSSE.Result))
	assert.EqualValues(t, fromPlain.ID, fromSSE.ID)
}

func TestParseFrameDetectsSSEByPrefix(t *testing.T) {
	// Some upstream replies carry the SSE frame under a JSON content type;
	// the literal prefix must still win.
	resp := &rawUpstreamResponse{
		Status:      200,
		ContentType: "application/json",
		Body:        []byte("event: message\ndata: " + sampleResponse + "\n"),
	}

	parsed, berr := parseFrame(resp)
	require.Nil(t, berr)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"[{\"x\":1}]"}],"isError":false}`, string(parsed.Result))
}

func TestParseFrameSkipsNonDataLines(t *testing.T) {
	body := strings.Join([]string{
		": keepalive comment",
		"event: message",
		"id: 42",
		"data: " + sampleResponse,
		"",
	}, "\n")
	resp := &rawUpstreamResponse{
		Status:      200,
		ContentType: "text/event-stream",
		Body:        []byte(body),
	}

	parsed, berr := parseFrame(resp)
	require.Nil(t, berr)
	assert.NotEmpty(t, parsed.Result)
}

func TestParseFrameFirstObjectWins(t *testing.T) {
	body := "event: message\ndata: " + sampleResponse +
		"\n\nevent: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":2,\"result\":{\"ignored\":true}}\n"
	resp := &rawUpstreamResponse{
		Status:      200,
		ContentType: "text/event-stream",
		Body:        []byte(body),
	}

	parsed, berr := parseFrame(resp)
	require.Nil(t, berr)
	assert.EqualValues(t, 1, parsed.ID)
}

func TestParseFrameTruncatedJSON(t *testing.T) {
	cases := []struct {
		name string
		resp *rawUpstreamResponse
	}{
		{
			name: "plain path",
			resp: &rawUpstreamResponse{
				Status:      200,
				ContentType: "application/json",
				Body:        []byte(`{"jsonrpc":"2.0","id":1,"result":{"conte`),
			},
		},
		{
			name: "sse path",
			resp: &rawUpstreamResponse{
				Status:      200,
				ContentType: "text/event-stream",
				Body:        []byte("event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"res"),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, berr := parseFrame(tc.resp)
			require.NotNil(t, berr)
			assert.Equal(t, protocol.KindResponseParse, berr.Kind)
			assert.Equal(t, -32002, berr.RPCError().Code)
		})
	}
}

func TestParseFrameEmptyEventStream(t *testing.T) {
	resp := &rawUpstreamResponse{
		Status:      200,
		ContentType: "text/event-stream",
		Body:        []byte(": just a comment\n\n"),
	}

	_, berr := parseFrame(resp)
	require.NotNil(t, berr)
	assert.Equal(t, protocol.KindResponseParse, berr.Kind)
}

func TestParseFrameRejectsNonRPCDocument(t *testing.T) {
	resp := &rawUpstreamResponse{
		Status:      200,
		ContentType: "application/json",
		Body:        []byte(`{"hello":"world"}`),
	}

	_, berr := parseFrame(resp)
	require.NotNil(t, berr)
	assert.Equal(t, protocol.KindResponseParse, berr.Kind)
	assert.Contains(t, berr.Message, "neither result nor error")
}

func TestExcerptCapsLength(t *testing.T) {
	long := strings.Repeat("x", 1000)
	got := excerpt([]byte(long))
	assert.Len(t, got, excerptLimit+3)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "short", excerpt([]byte("  short \n")))
}
