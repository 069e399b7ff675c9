// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"encoding/json"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/protocol"
)

// composeSuccess assembles the outbound envelope around the raw upstream
// result, rewriting the id to the caller's original one. The result bytes are
// not re-interpreted; whatever the upstream produced is what the caller gets.
func composeSuccess(id any, result json.RawMessage) *protocol.Response {
	return protocol.NewSuccessResponse(id, result)
}

// composeError assembles the outbound envelope for a normalized failure.
func composeError(id any, berr *protocol.BridgeError) *protocol.Response {
	return protocol.NewErrorResponse(id, berr.RPCError())
}

// callResultProbe inspects a tools/call result for the isError flag and its
// content without disturbing the raw payload that gets forwarded.
type callResultProbe struct {
	IsError bool `json:"isError"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// probeResult decodes the probe view of a raw result. A result that is not
// an object (legal JSON-RPC, just not a tool result) yields no probe.
func probeResult(raw json.RawMessage) (*callResultProbe, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var probe callResultProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, false
	}
	return &probe, true
}

// firstText returns the first text content entry, used as the message when an
// upstream result reports an error.
func (p *callResultProbe) firstText() string {
	for _, c := range p.Content {
		if c.Type == "text" && c.Text != "" {
			return c.Text
		}
	}
	return ""
}
