package mcp

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultServerURL is the base URL of a locally running server.
	DefaultServerURL = "http://127.0.0.1:8001"

	// DefaultEndpointPath is the path of the streamable HTTP endpoint.
	DefaultEndpointPath = "/mcp"

	// DefaultClientName is advertised in clientInfo during initialize.
	DefaultClientName = "mcpmail"
)

// Config holds the settings for one Client.
type Config struct {
	// ServerURL is the base URL of the MCP server (default: http://127.0.0.1:8001)
	ServerURL string

	// EndpointPath is appended to ServerURL (default: /mcp)
	EndpointPath string

	// Timeout bounds each exchange (default: 60s)
	Timeout time.Duration

	// Token is an optional bearer token
	Token string

	// SessionHeader overrides the session header name (default: Mcp-Session-Id)
	SessionHeader string

	// ClientName and ClientVersion are sent as clientInfo
	ClientName    string
	ClientVersion string
}

// DefaultConfig returns a Config pointing at a local server.
func DefaultConfig() Config {
	return Config{
		ServerURL:     DefaultServerURL,
		EndpointPath:  DefaultEndpointPath,
		Timeout:       DefaultTimeout,
		SessionHeader: DefaultSessionHeader,
		ClientName:    DefaultClientName,
		ClientVersion: "dev",
	}
}

// Validate checks that the config can be used to build a client.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server URL %q: scheme must be http or https", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server URL %q: missing host", c.ServerURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// Endpoint returns the full URL requests are posted to.
func (c Config) Endpoint() string {
	path := c.EndpointPath
	if path == "" {
		path = DefaultEndpointPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.ServerURL, "/") + path
}
