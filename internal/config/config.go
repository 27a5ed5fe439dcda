// ABOUTME: Configuration loading and parsing for relay-gateway
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/relay-gateway/internal/agent"
	"github.com/2389/relay-gateway/internal/catalog"
	"github.com/2389/relay-gateway/internal/provider"
	"github.com/2389/relay-gateway/internal/retrieval"
)

// EnvConfigPath overrides the default config location.
const EnvConfigPath = "RELAY_CONFIG"

// Config represents the complete relay-gateway configuration
type Config struct {
	Server          ServerConfig              `yaml:"server" toml:"server"`
	Tailscale       TailscaleConfig           `yaml:"tailscale" toml:"tailscale"`
	Logging         LoggingConfig             `yaml:"logging" toml:"logging"`
	Metrics         MetricsConfig             `yaml:"metrics" toml:"metrics"`
	DefaultProvider string                    `yaml:"default_provider" toml:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers" toml:"providers"`
	Retrieval       RetrievalConfig           `yaml:"retrieval" toml:"retrieval"`
	Agent           AgentConfig               `yaml:"agent" toml:"agent"`
	Documents       DocumentsConfig           `yaml:"documents" toml:"documents"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr" toml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr" toml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`

	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"`   // Serve HTTPS on :443 with Tailscale certs
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // Enable public Funnel (implies HTTPS)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// ProviderConfig holds per-provider settings. Zero values keep the built-in
// defaults.
type ProviderConfig struct {
	APIKey       string   `yaml:"api_key" toml:"api_key"`
	DefaultModel string   `yaml:"default_model" toml:"default_model"`
	Temperature  *float64 `yaml:"temperature" toml:"temperature"`
	BaseURL      string   `yaml:"base_url" toml:"base_url"`
	// Streaming disables native streaming when set to false.
	Streaming *bool           `yaml:"streaming" toml:"streaming"`
	Models    []catalog.Entry `yaml:"models" toml:"models"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// RetrievalConfig holds web and document lookup settings
type RetrievalConfig struct {
	MaxResults    int     `yaml:"max_results" toml:"max_results"`
	Workers       int     `yaml:"workers" toml:"workers"`
	SnippetLength int     `yaml:"snippet_length" toml:"snippet_length"`
	DocumentK     int     `yaml:"document_k" toml:"document_k"`
	WebCacheSize  int     `yaml:"web_cache_size" toml:"web_cache_size"`
	DocCacheSize  int     `yaml:"doc_cache_size" toml:"doc_cache_size"`
	SearchRate    float64 `yaml:"search_rate" toml:"search_rate"`

	FetchTimeout    time.Duration `yaml:"-" toml:"-"`
	FetchTimeoutRaw string        `yaml:"fetch_timeout" toml:"fetch_timeout"`
}

// AgentConfig holds reasoning loop settings
type AgentConfig struct {
	MaxRounds int `yaml:"max_rounds" toml:"max_rounds"`
}

// DocumentsConfig holds the document index location
type DocumentsConfig struct {
	Dir       string `yaml:"dir" toml:"dir"`
	IndexPath string `yaml:"index_path" toml:"index_path"`
	Watch     bool   `yaml:"watch" toml:"watch"`
}

// envKeys lists the conventional credential variables per provider, in
// priority order.
var envKeys = map[provider.ID][]string{
	provider.OpenAI:      {"OPENAI_API_KEY"},
	provider.Cohere:      {"COHERE_API_KEY"},
	provider.HuggingFace: {"HF_API_KEY", "HUGGINGFACE_API_KEY"},
	provider.Groq:        {"GROQ_API_KEY"},
	provider.Mistral:     {"MISTRAL_API_KEY"},
	provider.Anthropic:   {"ANTHROPIC_API_KEY"},
	provider.XAI:         {"XAI_API_KEY"},
	provider.DeepSeek:    {"DEEPSEEK_API_KEY"},
	provider.Alibaba:     {"DASHSCOPE_API_KEY"},
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        "127.0.0.1:8000",
			GRPCAddr:        "127.0.0.1:50051",
			ShutdownTimeout: 10 * time.Second,
		},
		Tailscale: TailscaleConfig{Hostname: "relay-gateway"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},

		DefaultProvider: string(provider.OpenAI),
		Providers:       map[string]ProviderConfig{},

		Retrieval: RetrievalConfig{
			MaxResults:    3,
			Workers:       4,
			SnippetLength: 800,
			DocumentK:     5,
			SearchRate:    1,
			FetchTimeout:  3 * time.Second,
		},
		Agent: AgentConfig{MaxRounds: agent.DefaultMaxRounds},
		Documents: DocumentsConfig{
			Dir:       "documents",
			IndexPath: filepath.Join(DataDir(), "index.db"),
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded and missing
// API keys are taken from the conventional provider variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(cfg)
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(Default())
	}
	return cfg, err
}

func finish(cfg *Config) (*Config, error) {
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	applyEnvKeys(cfg)

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyEnvKeys(cfg *Config) {
	for id, names := range envKeys {
		pc := cfg.Providers[string(id)]
		if pc.APIKey != "" {
			continue
		}
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				pc.APIKey = v
				cfg.Providers[string(id)] = pc
				break
			}
		}
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if _, err := provider.ParseID(c.DefaultProvider); err != nil {
		return fmt.Errorf("default_provider: %w", err)
	}

	for _, name := range c.providerNames() {
		if _, err := provider.ParseID(name); err != nil {
			return fmt.Errorf("providers: %w", err)
		}
		pc := c.Providers[name]
		if pc.Temperature != nil && (*pc.Temperature < 0 || *pc.Temperature > 1) {
			return fmt.Errorf("providers.%s.temperature must be between 0 and 1", name)
		}
		for i, m := range pc.Models {
			if m.ID == "" {
				return fmt.Errorf("providers.%s.models[%d].id is required", name, i)
			}
		}
	}

	if c.Agent.MaxRounds < 0 || c.Agent.MaxRounds > agent.MaxRoundsLimit {
		return fmt.Errorf("agent.max_rounds must be between 0 and %d (0 uses the default)", agent.MaxRoundsLimit)
	}

	if c.Documents.IndexPath == "" {
		return fmt.Errorf("documents.index_path is required")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (c *Config) providerNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.Retrieval.FetchTimeoutRaw != "" {
		cfg.Retrieval.FetchTimeout, err = time.ParseDuration(cfg.Retrieval.FetchTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing fetch_timeout %q: %w", cfg.Retrieval.FetchTimeoutRaw, err)
		}
	}

	for name, pc := range cfg.Providers {
		if pc.TimeoutRaw == "" {
			continue
		}
		pc.Timeout, err = time.ParseDuration(pc.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing providers.%s.timeout %q: %w", name, pc.TimeoutRaw, err)
		}
		cfg.Providers[name] = pc
	}

	return nil
}

// ProviderConfigs merges the file settings over each provider's built-in
// configuration.
func (c *Config) ProviderConfigs() map[provider.ID]provider.Config {
	out := make(map[provider.ID]provider.Config, len(provider.AllIDs))
	for _, id := range provider.AllIDs {
		cfg := provider.DefaultConfig(id)
		pc, ok := c.Providers[string(id)]
		if !ok {
			out[id] = cfg
			continue
		}
		cfg.APIKey = pc.APIKey
		if pc.DefaultModel != "" {
			cfg.DefaultModel = pc.DefaultModel
		}
		if pc.Temperature != nil {
			cfg.Temperature = *pc.Temperature
		}
		if pc.BaseURL != "" {
			cfg.BaseURL = strings.TrimRight(pc.BaseURL, "/")
		}
		if pc.Timeout > 0 {
			cfg.Timeout = pc.Timeout
		}
		if pc.Streaming != nil && !*pc.Streaming {
			cfg.SupportsNativeStreaming = false
		}
		out[id] = cfg
	}
	return out
}

// Catalog returns the built-in model catalog with any configured model lists
// replacing the provider's built-in list.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	overrides := make(map[string][]catalog.Entry)
	for name, pc := range c.Providers {
		if len(pc.Models) > 0 {
			overrides[name] = pc.Models
		}
	}
	if len(overrides) == 0 {
		return catalog.Builtin(), nil
	}
	return catalog.Builtin().WithOverrides(overrides)
}

// RetrievalSettings converts the retrieval section for the coordinator.
func (c *Config) RetrievalSettings() retrieval.Config {
	r := c.Retrieval
	return retrieval.Config{
		MaxResults:    r.MaxResults,
		Workers:       r.Workers,
		FetchTimeout:  r.FetchTimeout,
		SnippetLength: r.SnippetLength,
		DocumentK:     r.DocumentK,
		WebCacheSize:  r.WebCacheSize,
		DocCacheSize:  r.DocCacheSize,
	}
}

// Path returns the config file to use.
// Priority: flag value > RELAY_CONFIG env var > XDG_CONFIG_HOME/relay/gateway.yaml > ~/.config/relay/gateway.yaml
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "relay", "gateway.yaml")
}

// DataDir returns the relay data directory.
// Priority: XDG_DATA_HOME/relay > ~/.local/share/relay
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "relay")
}
