// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/auth"
	"github.com/go-core-stack/mcp-sql-bridge/pkg/config"
	"github.com/go-core-stack/mcp-sql-bridge/pkg/protocol"
)

// Bridge is the stateless protocol translator between inbound call shapes
// and the upstream's canonical JSON-RPC contract. All state is read-only
// configuration fixed at construction; concurrent invocations are
// independent.
type Bridge struct {
	cred       *auth.Credential
	normalizer *Normalizer
	invoker    *invoker
	schemas    *schemaClient
	logger     zerolog.Logger
}

// New constructs a Bridge from the runtime configuration.
func New(cfg config.Config) *Bridge {
	cred := auth.NewCredential(cfg.Token)
	return &Bridge{
		cred:       cred,
		normalizer: NewNormalizer(cfg.DefaultTool),
		invoker:    newInvoker(cfg, cred),
		schemas:    newSchemaClient(cfg, cred),
		logger:     log.With().Str("component", "bridge").Logger(),
	}
}

// Execute fully resolves one inbound call: normalize, invoke, parse, compose.
// Every failure is converted into a structured error envelope carrying the
// caller's id; nothing escapes unhandled and nothing is silently swallowed.
// Canceling ctx aborts the in-flight upstream request.
func (b *Bridge) Execute(ctx context.Context, raw []byte) *protocol.Response {
	start := time.Now()
	event := b.logger.With().Str("invocation_id", uuid.NewString()).Logger()

	call, shape, berr := b.normalizer.Normalize(raw)
	if berr != nil {
		event.Error().Err(berr).Msg("request normalization failed")
		return composeError(bestEffortID(raw), b.redact(berr))
	}
	event = event.With().
		Str("shape", shape).
		Str("method", call.Method).
		Str("tool", call.Tool).
		Logger()

	if call.Method == protocol.MethodToolsCall && call.Tool == schemaToolName && b.schemas != nil {
		result, berr := b.schemas.listSchemas(ctx)
		if berr != nil {
			event.Error().Err(berr).Msg("schema tool failed")
			return composeError(call.RequestID, b.redact(berr))
		}
		event.Info().Dur("duration", time.Since(start)).Msg("schema tool served")
		return composeSuccess(call.RequestID, result)
	}

	env, err := call.envelope()
	if err != nil {
		berr := protocol.Normalize(err)
		event.Error().Err(berr).Msg("envelope construction failed")
		return composeError(call.RequestID, b.redact(berr))
	}

	resp, berr := b.invoker.call(ctx, env)
	if berr != nil {
		event.Error().Err(berr).Dur("duration", time.Since(start)).Msg("upstream request failed")
		return composeError(call.RequestID, b.redact(berr))
	}

	if resp.Status < 200 || resp.Status > 299 {
		event.Warn().
			Int("status", resp.Status).
			Str("upstream_body", b.cred.Redact(excerpt(resp.Body))).
			Msg("upstream returned error status")
		return composeError(call.RequestID, protocol.NewBridgeError(
			protocol.KindUpstreamHTTP, "upstream returned HTTP %d", resp.Status))
	}

	parsed, berr := parseFrame(resp)
	if berr != nil {
		event.Error().
			Err(berr).
			Str("upstream_body", b.cred.Redact(excerpt(resp.Body))).
			Msg("upstream response unparseable")
		return composeError(call.RequestID, b.redact(berr))
	}

	if parsed.Error != nil {
		event.Warn().
			Int("upstream_code", parsed.Error.Code).
			Str("upstream_message", b.cred.Redact(parsed.Error.Message)).
			Msg("upstream reported error")
		return composeError(call.RequestID, protocol.NewBridgeError(
			protocol.KindUpstreamReported, "upstream error %d: %s",
			parsed.Error.Code, b.cred.Redact(parsed.Error.Message)))
	}

	if probe, ok := probeResult(parsed.Result); ok && probe.IsError {
		msg := probe.firstText()
		if msg == "" {
			msg = "upstream reported tool error"
		}
		event.Warn().Str("upstream_message", b.cred.Redact(msg)).Msg("upstream result flagged isError")
		return composeError(call.RequestID, protocol.NewBridgeError(
			protocol.KindUpstreamReported, "%s", b.cred.Redact(msg)))
	}

	event.Info().Dur("duration", time.Since(start)).Msg("call bridged")
	return composeSuccess(call.RequestID, parsed.Result)
}

// redact scrubs the credential from a failure message before it leaves the
// process on the wire.
func (b *Bridge) redact(berr *protocol.BridgeError) *protocol.BridgeError {
	berr.Message = b.cred.Redact(berr.Message)
	return berr
}

// bestEffortID recovers the caller id from a document the normalizer
// rejected, so even a malformed-request envelope echoes it.
func bestEffortID(raw []byte) any {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.ID != nil {
		return probe.ID
	}
	return protocol.DefaultRequestID
}
