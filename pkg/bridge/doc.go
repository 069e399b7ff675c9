// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package bridge translates heterogeneous inbound tool invocations into
// canonical JSON-RPC 2.0 calls against an upstream MCP server, and decodes
// replies that may arrive either as plain JSON or as SSE-framed text. Inbound
// shapes are recognized by an ordered list of matchers; failures at any stage
// are normalized into a stable error taxonomy and returned as structured
// error envelopes under the caller's original request id.
package bridge
