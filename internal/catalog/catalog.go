// ABOUTME: Static per-provider model catalog with ordered entries
// ABOUTME: Validates (provider, model) uniqueness and answers membership queries

package catalog

import (
	"fmt"
	"slices"
)

// Entry describes a single model offered by a provider.
type Entry struct {
	ProviderID  string `json:"-" yaml:"-"`
	ID          string `json:"id" yaml:"id" toml:"id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Description string `json:"description" yaml:"description" toml:"description"`
}

// Catalog is an immutable mapping of provider ID to its ordered models.
type Catalog struct {
	providers []string
	entries   map[string][]Entry
}

// New builds a Catalog from the given per-provider lists.
// Returns an error if a provider lists the same model ID twice.
func New(lists map[string][]Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string][]Entry, len(lists))}
	for providerID, list := range lists {
		seen := make(map[string]struct{}, len(list))
		out := make([]Entry, 0, len(list))
		for _, e := range list {
			if e.ID == "" {
				return nil, fmt.Errorf("provider %s: model with empty id", providerID)
			}
			if _, dup := seen[e.ID]; dup {
				return nil, fmt.Errorf("provider %s: duplicate model %q", providerID, e.ID)
			}
			seen[e.ID] = struct{}{}
			e.ProviderID = providerID
			out = append(out, e)
		}
		c.entries[providerID] = out
		c.providers = append(c.providers, providerID)
	}
	slices.Sort(c.providers)
	return c, nil
}

// Providers returns the provider IDs in the catalog, sorted.
func (c *Catalog) Providers() []string {
	return slices.Clone(c.providers)
}

// Models returns a copy of the ordered model list for a provider.
func (c *Catalog) Models(providerID string) []Entry {
	return slices.Clone(c.entries[providerID])
}

// Has reports whether modelID is listed for providerID.
func (c *Catalog) Has(providerID, modelID string) bool {
	for _, e := range c.entries[providerID] {
		if e.ID == modelID {
			return true
		}
	}
	return false
}

// First returns the first model listed for a provider.
func (c *Catalog) First(providerID string) (Entry, bool) {
	list := c.entries[providerID]
	if len(list) == 0 {
		return Entry{}, false
	}
	return list[0], true
}

// All returns a copy of the full catalog keyed by provider.
func (c *Catalog) All() map[string][]Entry {
	out := make(map[string][]Entry, len(c.entries))
	for id, list := range c.entries {
		out[id] = slices.Clone(list)
	}
	return out
}

// WithOverrides returns a new Catalog where each provider present in
// overrides has its list replaced. Providers absent from overrides keep
// their current entries.
func (c *Catalog) WithOverrides(overrides map[string][]Entry) (*Catalog, error) {
	merged := c.All()
	for id, list := range overrides {
		if len(list) == 0 {
			continue
		}
		merged[id] = list
	}
	return New(merged)
}
