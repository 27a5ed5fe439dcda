// ABOUTME: Tests for the static model catalog
// ABOUTME: Covers uniqueness validation, ordering, overrides, and membership queries

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_HasAllProviders(t *testing.T) {
	c := Builtin()

	want := []string{"alibaba", "anthropic", "cohere", "deepseek", "groq", "huggingface", "mistral", "openai", "xai"}
	assert.Equal(t, want, c.Providers())

	for _, id := range want {
		assert.NotEmpty(t, c.Models(id), "provider %s has no models", id)
	}
}

func TestBuiltin_FirstEntryOrder(t *testing.T) {
	c := Builtin()

	first, ok := c.First("openai")
	require.True(t, ok)
	assert.Equal(t, "gpt-4o-mini", first.ID)
	assert.Equal(t, "openai", first.ProviderID)

	first, ok = c.First("anthropic")
	require.True(t, ok)
	assert.Equal(t, "claude-3-5-haiku-latest", first.ID)
}

func TestNew_RejectsDuplicateModel(t *testing.T) {
	_, err := New(map[string][]Entry{
		"cohere": {
			{ID: "command-r-plus-08-2024"},
			{ID: "command-nightly"},
			{ID: "command-r-plus-08-2024"},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate model")
}

func TestNew_SameModelAcrossProvidersIsAllowed(t *testing.T) {
	c, err := New(map[string][]Entry{
		"groq":        {{ID: "llama"}},
		"huggingface": {{ID: "llama"}},
	})
	require.NoError(t, err)
	assert.True(t, c.Has("groq", "llama"))
	assert.True(t, c.Has("huggingface", "llama"))
}

func TestNew_RejectsEmptyID(t *testing.T) {
	_, err := New(map[string][]Entry{"openai": {{Name: "nameless"}}})
	require.Error(t, err)
}

func TestHas(t *testing.T) {
	c := Builtin()
	assert.True(t, c.Has("deepseek", "deepseek-reasoner"))
	assert.False(t, c.Has("deepseek", "gpt-4"))
	assert.False(t, c.Has("nope", "gpt-4"))
}

func TestModels_ReturnsCopy(t *testing.T) {
	c := Builtin()
	list := c.Models("xai")
	list[0].ID = "mutated"

	first, _ := c.First("xai")
	assert.Equal(t, "grok-2-latest", first.ID)
}

func TestWithOverrides(t *testing.T) {
	c := Builtin()

	out, err := c.WithOverrides(map[string][]Entry{
		"openai": {{ID: "gpt-custom", Name: "Custom"}},
		"cohere": nil,
	})
	require.NoError(t, err)

	first, ok := out.First("openai")
	require.True(t, ok)
	assert.Equal(t, "gpt-custom", first.ID)
	assert.Len(t, out.Models("openai"), 1)

	// Empty override leaves the provider untouched
	assert.Equal(t, c.Models("cohere"), out.Models("cohere"))

	// Original is unchanged
	first, _ = c.First("openai")
	assert.Equal(t, "gpt-4o-mini", first.ID)
}

func TestFirst_UnknownProvider(t *testing.T) {
	_, ok := Builtin().First("unknown")
	assert.False(t, ok)
}
