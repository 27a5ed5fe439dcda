// ABOUTME: Built-in model lists for every supported provider
// ABOUTME: Order is significant: the first entry is the degrade target for unknown models

package catalog

// builtin lists models per provider in display order.
var builtin = map[string][]Entry{
	"openai": {
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Optimized for balance of capability and speed"},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "Good balance of capability and speed"},
		{ID: "gpt-4", Name: "GPT-4", Description: "Most capable model, better reasoning"},
		{ID: "gpt-4o", Name: "GPT-4o", Description: "Optimized GPT-4 with improved performance"},
	},
	"cohere": {
		{ID: "command-r-plus-08-2024", Name: "Command R+ (08/2024)", Description: "Latest R+ model with improved reasoning"},
		{ID: "command-r7b-12-2024", Name: "Command R7B (12/2024)", Description: "Latest 7B model, fast and efficient"},
		{ID: "command-nightly", Name: "Command Nightly", Description: "Latest nightly build with newest features"},
	},
	"huggingface": {
		{ID: "meta-llama/Llama-3.3-70B-Instruct", Name: "Llama 3.3 70B", Description: "Meta's largest Llama 3.3 model"},
		{ID: "deepseek-ai/DeepSeek-Coder-V2-Instruct", Name: "DeepSeek Coder V2", Description: "Programming-focused model"},
		{ID: "meta-llama/Llama-3.1-70B-Instruct", Name: "Llama 3.1 70B", Description: "Meta's Llama 3.1 model"},
		{ID: "deepseek-ai/DeepSeek-V3", Name: "DeepSeek V3", Description: "General purpose model"},
		{ID: "meta-llama/Llama-3.2-3B-Instruct", Name: "Llama 3.2 3B", Description: "Small, efficient Llama model"},
		{ID: "perplexity-ai/r1-1776", Name: "Perplexity R1", Description: "Model focused on knowledge access and reasoning"},
		{ID: "deepseek-ai/DeepSeek-R1", Name: "DeepSeek R1", Description: "Reasoning-focused model"},
		{ID: "Qwen/QwQ-32B", Name: "QwQ 32B", Description: "Alibaba's large reasoning model"},
		{ID: "microsoft/Phi-4-multimodal-instruct", Name: "Phi-4 Multimodal", Description: "Microsoft's multimodal model"},
	},
	"groq": {
		{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B Versatile", Description: "Latest Llama model optimized for Groq's platform"},
		{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B Instant", Description: "Fast, smaller Llama model"},
		{ID: "qwen-qwq-32b", Name: "Qwen QwQ 32B", Description: "Large Qwen model"},
		{ID: "qwen-2.5-coder-32b", Name: "Qwen 2.5 Coder 32B", Description: "Specialized for programming tasks"},
		{ID: "deepseek-r1-distill-qwen-32b", Name: "DeepSeek R1 Qwen 32B", Description: "Distilled model with reasoning capabilities"},
		{ID: "deepseek-r1-distill-llama-70b", Name: "DeepSeek R1 Llama 70B", Description: "Large distilled model with reasoning"},
	},
	"mistral": {
		{ID: "codestral-latest", Name: "Codestral", Description: "Latest code-optimized model from Mistral"},
		{ID: "mistral-large-latest", Name: "Mistral Large", Description: "Largest and most capable Mistral model"},
		{ID: "mistral-small-latest", Name: "Mistral Small", Description: "Smaller, faster Mistral model"},
		{ID: "open-mistral-nemo", Name: "Open Mistral NeMo", Description: "Open edition of Mistral using NeMo framework"},
	},
	"anthropic": {
		{ID: "claude-3-5-haiku-latest", Name: "Claude 3.5 Haiku", Description: "Fastest Claude model for quick responses"},
		{ID: "claude-3-7-sonnet-latest", Name: "Claude 3.7 Sonnet", Description: "Balanced model with strong capabilities"},
		{ID: "claude-3-5-sonnet-latest", Name: "Claude 3.5 Sonnet", Description: "Previous generation Sonnet model"},
		{ID: "claude-3-opus-latest", Name: "Claude 3 Opus", Description: "Most capable Claude model with deepest reasoning"},
	},
	"xai": {
		{ID: "grok-2-latest", Name: "Grok 2", Description: "Current Grok model for text conversations"},
		{ID: "grok-2-vision-latest", Name: "Grok 2 Vision", Description: "Multimodal Grok model that can process images"},
	},
	"deepseek": {
		{ID: "deepseek-chat", Name: "DeepSeek Chat", Description: "General conversational model"},
		{ID: "deepseek-reasoner", Name: "DeepSeek Reasoner", Description: "Enhanced reasoning capabilities"},
	},
	"alibaba": {
		{ID: "qwq-plus", Name: "QwQ Plus", Description: "Alibaba's DashScope QwQ Plus model"},
		{ID: "qwq", Name: "QwQ", Description: "Alibaba's DashScope QwQ model"},
		{ID: "qwen-vl-plus", Name: "Qwen VL Plus", Description: "Alibaba's multimodal model for vision and language"},
		{ID: "qwen-vl-max", Name: "Qwen VL Max", Description: "Alibaba's larger multimodal model for vision and language"},
	},
}

// Builtin returns the built-in catalog.
func Builtin() *Catalog {
	c, err := New(builtin)
	if err != nil {
		// builtin is static data; a duplicate here is a programming error.
		panic(err)
	}
	return c
}
