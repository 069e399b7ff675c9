// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/protocol"
)

const (
	sseContentType   = "text/event-stream"
	sseMessagePrefix = "event: message"
	sseDataPrefix    = "data:"

	// excerptLimit bounds raw-body excerpts attached to parse failures.
	excerptLimit = 200

	// sseScanBuffer allows data lines well past bufio's default limit;
	// query results arrive as a single data line.
	sseScanBuffer = 1024 * 1024
)

// rawUpstreamResponse carries the upstream reply exactly as received. The
// status is data, not a failure signal, until the orchestrator inspects it.
type rawUpstreamResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// parseFrame decodes the upstream body into a single JSON-RPC response. The
// upstream answers the same call either as plain JSON or as an SSE-framed
// message depending on its mood, so detection goes by content type first and
// by the literal frame prefix as a fallback for mislabeled responses.
func parseFrame(resp *rawUpstreamResponse) (*protocol.Response, *protocol.BridgeError) {
	body := bytes.TrimSpace(resp.Body)

	if strings.Contains(resp.ContentType, sseContentType) || bytes.HasPrefix(body, []byte(sseMessagePrefix)) {
		return parseSSEFrame(body)
	}

	var parsed protocol.Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, protocol.WrapBridgeError(protocol.KindResponseParse, err,
			"upstream body is not valid JSON: %s", excerpt(body))
	}
	return validateParsed(&parsed, body)
}

// parseSSEFrame strips every line that is not a data line and decodes the
// first complete JSON object from the remaining payload. The exchange is
// one-shot request/response, so later frames carry nothing of interest.
func parseSSEFrame(body []byte) (*protocol.Response, *protocol.BridgeError) {
	var payloads []string

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), sseScanBuffer)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, sseDataPrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, sseDataPrefix))
		if payload == "" {
			continue
		}
		payloads = append(payloads, payload)
	}
	if err := scanner.Err(); err != nil {
		return nil, protocol.WrapBridgeError(protocol.KindResponseParse, err,
			"failed to scan event stream: %s", excerpt(body))
	}
	if len(payloads) == 0 {
		return nil, protocol.NewBridgeError(protocol.KindResponseParse,
			"event stream carries no data frames: %s", excerpt(body))
	}

	dec := json.NewDecoder(strings.NewReader(strings.Join(payloads, "\n")))
	var parsed protocol.Response
	if err := dec.Decode(&parsed); err != nil {
		return nil, protocol.WrapBridgeError(protocol.KindResponseParse, err,
			"event stream data is not valid JSON: %s", excerpt(body))
	}
	return validateParsed(&parsed, body)
}

// validateParsed enforces that a decoded response is actually a JSON-RPC
// reply and not an arbitrary JSON document.
func validateParsed(resp *protocol.Response, body []byte) (*protocol.Response, *protocol.BridgeError) {
	if len(resp.Result) == 0 && resp.Error == nil {
		return nil, protocol.NewBridgeError(protocol.KindResponseParse,
			"upstream response carries neither result nor error: %s", excerpt(body))
	}
	return resp, nil
}

// excerpt truncates raw diagnostic data so error details and log lines stay
// bounded. Callers redact credentials before anything leaves the process.
func excerpt(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > excerptLimit {
		return s[:excerptLimit] + "..."
	}
	return s
}
