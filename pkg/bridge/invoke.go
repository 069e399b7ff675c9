// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/auth"
	"github.com/go-core-stack/mcp-sql-bridge/pkg/config"
	"github.com/go-core-stack/mcp-sql-bridge/pkg/protocol"
)

const acceptDualFraming = "application/json, text/event-stream"

// invoker performs the single outbound HTTP POST per invocation. Retries are
// deliberately the caller's responsibility; one attempt keeps behavior
// auditable.
type invoker struct {
	endpoint string
	cred     *auth.Credential
	client   *http.Client
}

// newInvoker builds an invoker backed by an http.Client with tuned transport
// settings and the configured request timeout.
func newInvoker(cfg config.Config, cred *auth.Credential) *invoker {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, // nolint:gosec -- opt-in for development scenarios
		},
	}

	return &invoker{
		endpoint: cfg.Upstream.String(),
		cred:     cred,
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
	}
}

// call serializes the canonical envelope and posts it upstream. Any HTTP
// status comes back as data; only connection-level failures (refusal, DNS,
// timeout, cancellation) surface as transport errors.
func (i *invoker) call(ctx context.Context, env *protocol.Request) (*rawUpstreamResponse, *protocol.BridgeError) {
	body, err := json.Marshal(env)
	if err != nil {
		return nil, protocol.WrapBridgeError(protocol.KindInternal, err, "serialize upstream envelope")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, protocol.WrapBridgeError(protocol.KindInternal, err, "build upstream request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptDualFraming)
	if err := i.cred.Attach(req); err != nil {
		return nil, protocol.WrapBridgeError(protocol.KindInternal, err, "attach upstream credential")
	}

	resp, err := i.client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, protocol.WrapBridgeError(protocol.KindTransport, err, "upstream request canceled")
		case errors.Is(err, context.DeadlineExceeded):
			return nil, protocol.WrapBridgeError(protocol.KindTransport, err, "upstream request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, protocol.WrapBridgeError(protocol.KindTransport, err, "upstream request timed out")
		}
		return nil, protocol.WrapBridgeError(protocol.KindTransport, err, "upstream unreachable")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, protocol.WrapBridgeError(protocol.KindTransport, err, "read upstream response body")
	}

	return &rawUpstreamResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        payload,
	}, nil
}
