// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, key fallbacks, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389/relay-gateway/internal/catalog"
	"github.com/2389/relay-gateway/internal/provider"
)

// clearKeyEnv blanks every provider credential variable for the test.
func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, names := range envKeys {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, "gateway.yaml", `
server:
  http_addr: "0.0.0.0:9000"
  grpc_addr: "0.0.0.0:50052"
  shutdown_timeout: "5s"

default_provider: anthropic
providers:
  anthropic:
    api_key: "sk-ant"
    default_model: "claude-3-5-haiku-20241022"
    temperature: 0.2
    timeout: "45s"
  huggingface:
    api_key: "hf"
    streaming: false

retrieval:
  max_results: 5
  fetch_timeout: "2s"

agent:
  max_rounds: 4

documents:
  dir: "/srv/docs"
  index_path: "/srv/index.db"
  watch: true

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9000" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9000")
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want %v", cfg.Server.ShutdownTimeout, 5*time.Second)
	}
	if cfg.DefaultProvider != "anthropic" {
		t.Errorf("DefaultProvider = %q, want anthropic", cfg.DefaultProvider)
	}
	if cfg.Retrieval.MaxResults != 5 {
		t.Errorf("Retrieval.MaxResults = %d, want 5", cfg.Retrieval.MaxResults)
	}
	if cfg.Retrieval.Workers != 4 {
		t.Errorf("Retrieval.Workers = %d, want default 4", cfg.Retrieval.Workers)
	}
	if cfg.Retrieval.FetchTimeout != 2*time.Second {
		t.Errorf("Retrieval.FetchTimeout = %v, want 2s", cfg.Retrieval.FetchTimeout)
	}
	if cfg.Agent.MaxRounds != 4 {
		t.Errorf("Agent.MaxRounds = %d, want 4", cfg.Agent.MaxRounds)
	}
	if !cfg.Documents.Watch || cfg.Documents.IndexPath != "/srv/index.db" {
		t.Errorf("Documents = %+v", cfg.Documents)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}

	pcs := cfg.ProviderConfigs()
	ant := pcs[provider.Anthropic]
	if ant.APIKey != "sk-ant" {
		t.Errorf("anthropic APIKey = %q", ant.APIKey)
	}
	if ant.Temperature != 0.2 {
		t.Errorf("anthropic Temperature = %v, want 0.2", ant.Temperature)
	}
	if ant.Timeout != 45*time.Second {
		t.Errorf("anthropic Timeout = %v, want 45s", ant.Timeout)
	}
	if ant.DefaultModel != "claude-3-5-haiku-20241022" {
		t.Errorf("anthropic DefaultModel = %q", ant.DefaultModel)
	}
	if pcs[provider.HuggingFace].SupportsNativeStreaming {
		t.Error("huggingface streaming should be disabled")
	}
	if !pcs[provider.OpenAI].SupportsNativeStreaming {
		t.Error("openai keeps native streaming")
	}
	if pcs[provider.OpenAI].APIKey != "" {
		t.Error("openai has no key configured")
	}
	if len(pcs) != len(provider.AllIDs) {
		t.Errorf("ProviderConfigs len = %d, want %d", len(pcs), len(provider.AllIDs))
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, "gateway.toml", `
default_provider = "groq"

[server]
http_addr = "127.0.0.1:8100"

[providers.groq]
api_key = "gsk"
default_model = "llama-3.1-8b-instant"

[[providers.groq.models]]
id = "llama-3.1-8b-instant"
name = "Llama 3.1 8B"

[agent]
max_rounds = 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultProvider != "groq" {
		t.Errorf("DefaultProvider = %q, want groq", cfg.DefaultProvider)
	}
	if cfg.Server.HTTPAddr != "127.0.0.1:8100" {
		t.Errorf("Server.HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Agent.MaxRounds != 3 {
		t.Errorf("Agent.MaxRounds = %d, want 3", cfg.Agent.MaxRounds)
	}

	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	models := cat.Models("groq")
	if len(models) != 1 || models[0].ID != "llama-3.1-8b-instant" {
		t.Errorf("groq models = %+v, want the single configured entry", models)
	}
	if len(cat.Models("openai")) == 0 {
		t.Error("openai keeps its built-in models")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("TEST_MISTRAL_KEY", "mistral-from-env")
	t.Setenv("TEST_HTTP_ADDR", "10.0.0.1:8000")

	path := writeConfig(t, "gateway.yaml", `
server:
  http_addr: "${TEST_HTTP_ADDR}"
providers:
  mistral:
    api_key: "${TEST_MISTRAL_KEY}"
  cohere:
    api_key: "${TEST_UNSET_VARIABLE}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTPAddr != "10.0.0.1:8000" {
		t.Errorf("Server.HTTPAddr = %q, want expanded value", cfg.Server.HTTPAddr)
	}
	if got := cfg.Providers["mistral"].APIKey; got != "mistral-from-env" {
		t.Errorf("mistral APIKey = %q, want %q", got, "mistral-from-env")
	}
	if got := cfg.Providers["cohere"].APIKey; got != "" {
		t.Errorf("cohere APIKey = %q, want empty for unset variable", got)
	}
}

func TestLoad_ConventionalKeyFallback(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("HUGGINGFACE_API_KEY", "hf-secondary")
	t.Setenv("DASHSCOPE_API_KEY", "ds-env")

	path := writeConfig(t, "gateway.yaml", `
providers:
  openai:
    api_key: "sk-file"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	pcs := cfg.ProviderConfigs()
	if pcs[provider.OpenAI].APIKey != "sk-file" {
		t.Errorf("file key must win over env, got %q", pcs[provider.OpenAI].APIKey)
	}
	if pcs[provider.HuggingFace].APIKey != "hf-secondary" {
		t.Errorf("huggingface APIKey = %q, want HUGGINGFACE_API_KEY value", pcs[provider.HuggingFace].APIKey)
	}
	if pcs[provider.Alibaba].APIKey != "ds-env" {
		t.Errorf("alibaba APIKey = %q, want DASHSCOPE_API_KEY value", pcs[provider.Alibaba].APIKey)
	}

	t.Setenv("HF_API_KEY", "hf-primary")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.Providers["huggingface"].APIKey; got != "hf-primary" {
		t.Errorf("HF_API_KEY should take priority, got %q", got)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-env")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Server.HTTPAddr != "127.0.0.1:8000" {
		t.Errorf("Server.HTTPAddr = %q, want default", cfg.Server.HTTPAddr)
	}
	if cfg.DefaultProvider != "openai" {
		t.Errorf("DefaultProvider = %q, want openai", cfg.DefaultProvider)
	}
	if cfg.Providers["groq"].APIKey != "gsk-env" {
		t.Error("env keys apply without a config file")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearKeyEnv(t)
	path := writeConfig(t, "gateway.yaml", `
retrieval:
  fetch_timeout: "soon"
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "fetch_timeout") {
		t.Errorf("error = %v, want mention of fetch_timeout", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown default provider", func(c *Config) { c.DefaultProvider = "nope" }, "default_provider"},
		{"unknown provider section", func(c *Config) { c.Providers["bogus"] = ProviderConfig{} }, "providers"},
		{"temperature out of range", func(c *Config) {
			v := 1.5
			c.Providers["openai"] = ProviderConfig{Temperature: &v}
		}, "temperature"},
		{"rounds above limit", func(c *Config) { c.Agent.MaxRounds = 11 }, "max_rounds"},
		{"missing http addr", func(c *Config) { c.Server.HTTPAddr = "" }, "http_addr"},
		{"tailscale without hostname", func(c *Config) {
			c.Tailscale.Enabled = true
			c.Tailscale.Hostname = ""
		}, "hostname"},
		{"tailscale replaces http addr", func(c *Config) {
			c.Tailscale.Enabled = true
			c.Server.HTTPAddr = ""
		}, ""},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"model without id", func(c *Config) {
			c.Providers["groq"] = ProviderConfig{Models: []catalog.Entry{{Name: "x"}}}
		}, "models[0].id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPath_Priority(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/relay/env.yaml")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	if got := Path("/flag.yaml"); got != "/flag.yaml" {
		t.Errorf("Path(flag) = %q", got)
	}
	if got := Path(""); got != "/etc/relay/env.yaml" {
		t.Errorf("Path(env) = %q", got)
	}

	t.Setenv(EnvConfigPath, "")
	if got := Path(""); got != filepath.Join("/xdg", "relay", "gateway.yaml") {
		t.Errorf("Path(xdg) = %q", got)
	}
}

func TestRetrievalSettings(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.WebCacheSize = 64
	rs := cfg.RetrievalSettings()
	if rs.MaxResults != 3 || rs.Workers != 4 || rs.FetchTimeout != 3*time.Second {
		t.Errorf("RetrievalSettings() = %+v", rs)
	}
	if rs.WebCacheSize != 64 {
		t.Errorf("WebCacheSize = %d, want 64", rs.WebCacheSize)
	}
}
