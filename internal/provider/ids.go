// ABOUTME: Closed set of supported provider identifiers and their defaults
// ABOUTME: Default models, display names, and endpoint base URLs per provider

package provider

import "fmt"

// ID identifies a backend provider.
type ID string

// Supported providers.
const (
	OpenAI      ID = "openai"
	Cohere      ID = "cohere"
	HuggingFace ID = "huggingface"
	Groq        ID = "groq"
	Mistral     ID = "mistral"
	Anthropic   ID = "anthropic"
	XAI         ID = "xai"
	DeepSeek    ID = "deepseek"
	Alibaba     ID = "alibaba"
)

// AllIDs lists every supported provider in registration order.
var AllIDs = []ID{OpenAI, Cohere, HuggingFace, Groq, Mistral, Anthropic, XAI, DeepSeek, Alibaba}

type family int

const (
	familyOpenAICompat family = iota
	familyAnthropic
	familyCohere
	familyHuggingFace
)

type providerInfo struct {
	name         string
	family       family
	baseURL      string
	defaultModel string
}

var providerTable = map[ID]providerInfo{
	OpenAI:      {"OpenAI", familyOpenAICompat, "https://api.openai.com/v1", "gpt-4o-mini"},
	Cohere:      {"Cohere", familyCohere, "https://api.cohere.com/v2", "command-r-plus-08-2024"},
	HuggingFace: {"HuggingFace", familyHuggingFace, "https://api-inference.huggingface.co/models", "meta-llama/Llama-3.3-70B-Instruct"},
	Groq:        {"Groq", familyOpenAICompat, "https://api.groq.com/openai/v1", "llama-3.3-70b-versatile"},
	Mistral:     {"Mistral", familyOpenAICompat, "https://api.mistral.ai/v1", "codestral-latest"},
	Anthropic:   {"Anthropic", familyAnthropic, "https://api.anthropic.com/v1", "claude-3-5-haiku-latest"},
	XAI:         {"X AI", familyOpenAICompat, "https://api.x.ai/v1", "grok-2-latest"},
	DeepSeek:    {"Deepseek", familyOpenAICompat, "https://api.deepseek.com/v1", "deepseek-chat"},
	Alibaba:     {"Alibaba", familyOpenAICompat, "https://dashscope-intl.aliyuncs.com/compatible-mode/v1", "qwq-plus"},
}

// ParseID validates s as a provider identifier.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if _, ok := providerTable[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
	}
	return id, nil
}

// DisplayName returns the human-facing provider name used in diagnostics.
func (id ID) DisplayName() string {
	if info, ok := providerTable[id]; ok {
		return info.name
	}
	return string(id)
}

// DefaultModel returns the provider's built-in default model.
func (id ID) DefaultModel() string {
	return providerTable[id].defaultModel
}

// NativeStreaming reports whether the provider's API streams deltas.
func (id ID) NativeStreaming() bool {
	info, ok := providerTable[id]
	return ok && info.family != familyHuggingFace
}

func (id ID) String() string { return string(id) }
