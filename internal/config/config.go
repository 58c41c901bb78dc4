// Package config loads mcpd configuration from an optional YAML file with
// MCP_* environment-variable overrides.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration for mcpd
type Config struct {
	// Addr is the listen address for the HTTP server
	Addr string `yaml:"addr"`

	// PublicURL is the external base URL used when building OAuth
	// protected-resource metadata; derived from the request when empty
	PublicURL string `yaml:"publicURL"`

	// AuthToken is the expected bearer token; supports op:// secret
	// references. Empty leaves the server misconfigured and failing closed.
	AuthToken string `yaml:"authToken"`

	// AllowedOrigins restricts the Origin header; empty means no restriction
	AllowedOrigins []string `yaml:"allowedOrigins"`

	// AuthorizationServers lists the OAuth authorization servers advertised
	// in protected-resource metadata
	AuthorizationServers []string `yaml:"authorizationServers"`

	// RequiredScope is the OAuth scope advertised in challenges
	RequiredScope string `yaml:"requiredScope"`

	// ResourceDocumentation is a documentation URL advertised in
	// protected-resource metadata
	ResourceDocumentation string `yaml:"resourceDocumentation"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{Addr: ":8080"}
}

// LoadFile loads configuration from a YAML file. An empty path or a missing
// file yields the default configuration.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	config := Default()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config YAML: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides configuration values from the environment. The lookup
// function is injected so tests can supply their own environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("MCP_LISTEN_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := lookup("MCP_PUBLIC_URL"); ok {
		c.PublicURL = v
	}
	if v, ok := lookup("MCP_AUTH_TOKEN"); ok {
		c.AuthToken = strings.TrimSpace(v)
	}
	if v, ok := lookup("MCP_ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("MCP_AUTHORIZATION_SERVERS"); ok {
		c.AuthorizationServers = splitList(v)
	}
	if v, ok := lookup("MCP_REQUIRED_SCOPE"); ok {
		c.RequiredScope = strings.TrimSpace(v)
	}
	if v, ok := lookup("MCP_RESOURCE_DOCS"); ok {
		c.ResourceDocumentation = strings.TrimSpace(v)
	}
}

// splitList parses a comma-separated list, trimming whitespace and dropping
// empty entries
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
