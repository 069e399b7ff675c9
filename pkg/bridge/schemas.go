// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/go-core-stack/mcp-sql-bridge/pkg/auth"
	"github.com/go-core-stack/mcp-sql-bridge/pkg/config"
	"github.com/go-core-stack/mcp-sql-bridge/pkg/protocol"
)

// schemaToolName is served locally against the REST schema API instead of
// being forwarded to the MCP upstream, which does not expose schema listing.
const schemaToolName = "listSchemas"

// schemaClient answers the listSchemas tool from the REST schema API.
type schemaClient struct {
	endpoint string
	cred     *auth.Credential
	client   *http.Client
}

// newSchemaClient returns nil when no schema API is configured; the tool then
// falls through to the upstream like any other call.
func newSchemaClient(cfg config.Config, cred *auth.Credential) *schemaClient {
	if cfg.SchemaAPIURL == nil {
		return nil
	}
	return &schemaClient{
		endpoint: cfg.SchemaAPIURL.String(),
		cred:     cred,
		client:   &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// listSchemas performs the REST GET and wraps the body as an MCP tool result.
// REST failures become isError results rather than bridge errors, matching
// how the upstream reports tool-level failures.
func (s *schemaClient) listSchemas(ctx context.Context) (json.RawMessage, *protocol.BridgeError) {
	result := s.fetch(ctx)
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, protocol.WrapBridgeError(protocol.KindInternal, err, "serialize schema tool result")
	}
	return raw, nil
}

func (s *schemaClient) fetch(ctx context.Context) *mcp.CallToolResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build schema request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if err := s.cred.Attach(req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("attach schema credential: %v", err))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("schema API unreachable: %v", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read schema response: %v", err))
	}
	if resp.StatusCode != http.StatusOK {
		return mcp.NewToolResultError(fmt.Sprintf("schema API returned %d: %s", resp.StatusCode, excerpt(body)))
	}

	return mcp.NewToolResultText(string(body))
}
