// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package auth holds the bearer credential the bridge presents to the
// upstream MCP server, together with the redaction helper that keeps the
// token out of logs and error payloads.
package auth

import (
	"fmt"
	"net/http"
	"strings"
)

const (
	// HeaderAuthorization is the header the upstream expects the token on.
	HeaderAuthorization = "Authorization"
	// bearerScheme prefixes the token value in the Authorization header.
	bearerScheme = "Bearer "
	// redactedPlaceholder replaces token occurrences in diagnostic output.
	redactedPlaceholder = "[REDACTED]"
)

// Credential wraps the bearer token used for every upstream call. The token
// is read-only configuration injected at construction time.
type Credential struct {
	token string
}

// NewCredential constructs a credential from the configured token.
func NewCredential(token string) *Credential {
	return &Credential{token: token}
}

// Attach mutates the request by injecting the Authorization header.
func (c *Credential) Attach(req *http.Request) error {
	if c.token == "" {
		return fmt.Errorf("bearer token must be set")
	}
	req.Header.Set(HeaderAuthorization, bearerScheme+c.token)
	return nil
}

// Redact removes every occurrence of the token from s. Diagnostic excerpts
// and log lines must pass through here before leaving the process.
func (c *Credential) Redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, redactedPlaceholder)
}
