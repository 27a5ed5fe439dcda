// ABOUTME: Registry of configured providers and the model catalog
// ABOUTME: Resolves model IDs, checks credentials, and constructs adapters

package provider

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/2389/relay-gateway/internal/catalog"
)

// Factory builds an adapter for a resolved model. streaming is false when
// the caller or the provider rules out native delta streaming.
type Factory func(cfg Config, model string, streaming bool) (Adapter, error)

// Registry maps provider IDs to configuration and adapter factories.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	configs   map[ID]Config
	factories map[ID]Factory
	catalog   *catalog.Catalog
	defaultID ID
	client    *http.Client
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithFactory replaces the adapter factory for one provider.
func WithFactory(id ID, f Factory) Option {
	return func(r *Registry) { r.factories[id] = f }
}

// WithCatalog replaces the built-in model catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(r *Registry) { r.catalog = c }
}

// WithHTTPClient sets the client used by the built-in HTTP adapters.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.client = c }
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates a registry. Providers missing from configs get their
// built-in configuration with no credential.
func NewRegistry(configs map[ID]Config, defaultID ID, opts ...Option) (*Registry, error) {
	if _, ok := providerTable[defaultID]; !ok {
		return nil, fmt.Errorf("default provider: %w: %q", ErrUnknownProvider, defaultID)
	}

	r := &Registry{
		configs:   make(map[ID]Config, len(AllIDs)),
		factories: make(map[ID]Factory, len(AllIDs)),
		catalog:   catalog.Builtin(),
		defaultID: defaultID,
		logger:    slog.Default(),
	}
	for _, id := range AllIDs {
		r.configs[id] = DefaultConfig(id)
	}
	for id, cfg := range configs {
		if _, ok := providerTable[id]; !ok {
			return nil, fmt.Errorf("provider config: %w: %q", ErrUnknownProvider, id)
		}
		cfg.ID = id
		r.configs[id] = cfg
	}

	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "provider-registry")

	for _, id := range AllIDs {
		if _, ok := r.factories[id]; !ok {
			r.factories[id] = r.httpFactory
		}
	}
	return r, nil
}

func (r *Registry) httpFactory(cfg Config, model string, streaming bool) (Adapter, error) {
	return newHTTPAdapter(cfg, model, streaming, r.client, r.logger), nil
}

// ResolveModel returns the concrete model to use. An empty modelID selects
// the provider default; an unknown one degrades to the first catalog entry.
func (r *Registry) ResolveModel(providerID, modelID string) (string, error) {
	id, err := ParseID(providerID)
	if err != nil {
		return "", err
	}
	first, hasCatalog := r.catalog.First(providerID)

	if modelID == "" {
		modelID = r.configs[id].DefaultModel
		if modelID == "" {
			modelID = id.DefaultModel()
		}
	}
	if !hasCatalog || r.catalog.Has(providerID, modelID) {
		return modelID, nil
	}

	r.logger.Warn("model not in catalog, degrading to first catalog entry",
		"provider", providerID, "requested", modelID, "using", first.ID)
	return first.ID, nil
}

// GetAdapter builds an adapter for the provider and model. streaming=false
// forces Stream to perform a single full invocation.
func (r *Registry) GetAdapter(providerID, modelID string, streaming bool) (Adapter, error) {
	model, err := r.ResolveModel(providerID, modelID)
	if err != nil {
		return nil, err
	}
	id := ID(providerID)
	cfg := r.configs[id]
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingCredential, id)
	}
	a, err := r.factories[id](cfg, model, streaming && cfg.SupportsNativeStreaming)
	if err != nil {
		return nil, fmt.Errorf("creating %s adapter: %w", id, err)
	}
	return a, nil
}

// ListCatalog returns every provider's ordered model list.
func (r *Registry) ListCatalog() map[string][]catalog.Entry {
	return r.catalog.All()
}

// Catalog returns the registry's model catalog.
func (r *Registry) Catalog() *catalog.Catalog {
	return r.catalog
}

// Default returns the fallback provider.
func (r *Registry) Default() ID {
	return r.defaultID
}

// Ready reports whether id has a credential configured.
func (r *Registry) Ready(id ID) bool {
	cfg, ok := r.configs[id]
	return ok && cfg.APIKey != ""
}

// Providers returns every supported provider in registration order.
func (r *Registry) Providers() []ID {
	return append([]ID(nil), AllIDs...)
}

// Configured returns the providers that have a credential.
func (r *Registry) Configured() []ID {
	var out []ID
	for _, id := range AllIDs {
		if r.Ready(id) {
			out = append(out, id)
		}
	}
	return out
}
