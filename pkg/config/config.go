// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envListenAddr         = "BRIDGE_LISTEN_ADDR"
	envUpstreamURL        = "BRIDGE_UPSTREAM_URL"
	envToken              = "BRIDGE_TOKEN"
	envSchemaAPIURL       = "BRIDGE_SCHEMA_API_URL"
	envDefaultTool        = "BRIDGE_DEFAULT_TOOL"
	envRequestTimeout     = "BRIDGE_REQUEST_TIMEOUT"
	envInsecureSkipVerify = "BRIDGE_UPSTREAM_INSECURE"
	envLogLevel           = "BRIDGE_LOG_LEVEL"
	envServerReadTimeout  = "BRIDGE_SERVER_READ_TIMEOUT"
	envServerWriteTimeout = "BRIDGE_SERVER_WRITE_TIMEOUT"
	envServerIdleTimeout  = "BRIDGE_SERVER_IDLE_TIMEOUT"
	envGracefulShutdown   = "BRIDGE_GRACEFUL_SHUTDOWN"

	defaultListenAddr         = "127.0.0.1:8080"
	defaultTool               = "query"
	defaultRequestTimeout     = 30 * time.Second
	defaultLogLevel           = "info"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 35 * time.Second
	defaultServerIdleTimeout  = 120 * time.Second
	defaultGracefulShutdown   = 10 * time.Second
)

// Config captures runtime settings for the bridge.
type Config struct {
	ListenAddr              string
	Upstream                *url.URL
	Token                   string
	SchemaAPIURL            *url.URL
	DefaultTool             string
	RequestTimeout          time.Duration
	InsecureSkipVerify      bool
	LogLevel                string
	ServerReadTimeout       time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	GracefulShutdownTimeout time.Duration
}

// Load reads configuration from environment variables and validates required values.
func Load() (Config, error) {
	upstreamRaw := strings.TrimSpace(os.Getenv(envUpstreamURL))
	if upstreamRaw == "" {
		return Config{}, errors.New("BRIDGE_UPSTREAM_URL is required")
	}

	upstream, err := url.Parse(upstreamRaw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid BRIDGE_UPSTREAM_URL: %w", err)
	}
	if !upstream.IsAbs() {
		return Config{}, errors.New("BRIDGE_UPSTREAM_URL must be absolute (scheme://host)")
	}

	token := strings.TrimSpace(os.Getenv(envToken))
	if token == "" {
		return Config{}, errors.New("BRIDGE_TOKEN is required")
	}

	var schemaAPI *url.URL
	if raw := strings.TrimSpace(os.Getenv(envSchemaAPIURL)); raw != "" {
		schemaAPI, err = url.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BRIDGE_SCHEMA_API_URL: %w", err)
		}
		if !schemaAPI.IsAbs() {
			return Config{}, errors.New("BRIDGE_SCHEMA_API_URL must be absolute (scheme://host)")
		}
	}

	cfg := Config{
		ListenAddr:              getString(envListenAddr, defaultListenAddr),
		Upstream:                upstream,
		Token:                   token,
		SchemaAPIURL:            schemaAPI,
		DefaultTool:             getString(envDefaultTool, defaultTool),
		RequestTimeout:          getDuration(envRequestTimeout, defaultRequestTimeout),
		InsecureSkipVerify:      getBool(envInsecureSkipVerify, false),
		LogLevel:                strings.ToLower(getString(envLogLevel, defaultLogLevel)),
		ServerReadTimeout:       getDuration(envServerReadTimeout, defaultServerReadTimeout),
		ServerWriteTimeout:      getDuration(envServerWriteTimeout, defaultServerWriteTimeout),
		ServerIdleTimeout:       getDuration(envServerIdleTimeout, defaultServerIdleTimeout),
		GracefulShutdownTimeout: getDuration(envGracefulShutdown, defaultGracefulShutdown),
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
