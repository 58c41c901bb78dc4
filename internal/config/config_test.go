package config

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":8080")
	}
	if cfg.AuthToken != "" {
		t.Error("AuthToken should be empty by default")
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Error("AllowedOrigins should be empty by default")
	}
	if len(cfg.AuthorizationServers) != 0 {
		t.Error("AuthorizationServers should be empty by default")
	}
}

func TestLoad(t *testing.T) {
	yamlConfig := `
addr: ":9090"
publicURL: https://mcp.example.com
authToken: op://vault/mcpd/token
allowedOrigins:
  - https://app.example.com
  - https://other.example.com
authorizationServers:
  - https://auth.example.com
requiredScope: mcp:tools
resourceDocumentation: https://docs.example.com
`

	cfg, err := Load(strings.NewReader(yamlConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":9090")
	}
	if cfg.PublicURL != "https://mcp.example.com" {
		t.Errorf("PublicURL = %q", cfg.PublicURL)
	}
	if cfg.AuthToken != "op://vault/mcpd/token" {
		t.Errorf("AuthToken = %q", cfg.AuthToken)
	}
	wantOrigins := []string{"https://app.example.com", "https://other.example.com"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, wantOrigins) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, wantOrigins)
	}
	if cfg.RequiredScope != "mcp:tools" {
		t.Errorf("RequiredScope = %q", cfg.RequiredScope)
	}
	if cfg.ResourceDocumentation != "https://docs.example.com" {
		t.Errorf("ResourceDocumentation = %q", cfg.ResourceDocumentation)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(`requiredScope: mcp:tools`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want default %q", cfg.Addr, ":8080")
	}
	if cfg.RequiredScope != "mcp:tools" {
		t.Errorf("RequiredScope = %q", cfg.RequiredScope)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	if _, err := Load(strings.NewReader("addr: [unclosed")); err == nil {
		t.Error("Load() should fail on invalid YAML")
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := LoadFile("")
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if cfg.Addr != ":8080" {
			t.Errorf("Addr = %q, want default", cfg.Addr)
		}
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("LoadFile() error = %v", err)
		}
		if cfg.Addr != ":8080" {
			t.Errorf("Addr = %q, want default", cfg.Addr)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"MCP_LISTEN_ADDR":           ":7070",
		"MCP_PUBLIC_URL":            "https://mcp.example.com",
		"MCP_AUTH_TOKEN":            " secret \n",
		"MCP_ALLOWED_ORIGINS":       "https://a.example.com, https://b.example.com, ",
		"MCP_AUTHORIZATION_SERVERS": "https://auth.example.com",
		"MCP_REQUIRED_SCOPE":        "mcp:tools",
		"MCP_RESOURCE_DOCS":         "https://docs.example.com",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	cfg.ApplyEnv(lookup)

	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, ":7070")
	}
	if cfg.AuthToken != "secret" {
		t.Errorf("AuthToken = %q, want trimmed %q", cfg.AuthToken, "secret")
	}
	wantOrigins := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, wantOrigins) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, wantOrigins)
	}
	if !reflect.DeepEqual(cfg.AuthorizationServers, []string{"https://auth.example.com"}) {
		t.Errorf("AuthorizationServers = %v", cfg.AuthorizationServers)
	}
	if cfg.RequiredScope != "mcp:tools" {
		t.Errorf("RequiredScope = %q", cfg.RequiredScope)
	}
	if cfg.ResourceDocumentation != "https://docs.example.com" {
		t.Errorf("ResourceDocumentation = %q", cfg.ResourceDocumentation)
	}
}

func TestApplyEnvLeavesUnsetValues(t *testing.T) {
	cfg := Default()
	cfg.RequiredScope = "mcp:tools"
	cfg.ApplyEnv(func(string) (string, bool) { return "", false })

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want default", cfg.Addr)
	}
	if cfg.RequiredScope != "mcp:tools" {
		t.Errorf("RequiredScope = %q, want preserved value", cfg.RequiredScope)
	}
}
