// Package provider adapts heterogeneous language-model backends to a single
// invocation contract.
//
// # Overview
//
// Every backend is reached through an Adapter bound to one provider and one
// model:
//
//	a, err := registry.GetAdapter("anthropic", "", true)
//	text, err := a.Invoke(ctx, prompt)
//	for d := range a.Stream(ctx, prompt) { ... }
//
// # Families
//
// Backends share one HTTP adapter parametrized by a wire format:
//
//   - openai, groq, mistral, xai, deepseek, alibaba: OpenAI-compatible chat
//     completions with SSE deltas
//   - anthropic: Messages API, content_block_delta events
//   - cohere: v2 chat, content-delta events
//   - huggingface: Inference API text generation, no native streaming
//
// A provider without native streaming still satisfies Stream: it performs a
// full Invoke and yields the result as one delta.
//
// # Failures
//
// Invoke returns a *BackendError. Stream never panics or hangs: a failure
// ends the stream with one Delta whose Err is set and whose Text is a human
// readable diagnostic suitable for display.
//
// # Registry
//
// The Registry owns provider configuration and the model catalog. It
// resolves absent or unknown model IDs, refuses providers without a
// credential, and builds adapters from a closed factory table.
package provider
