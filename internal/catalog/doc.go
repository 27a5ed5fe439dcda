// Package catalog holds the static model catalog served by relay-gateway.
//
// # Overview
//
// Each provider exposes an ordered list of models. The order matters: when a
// caller asks for a model the provider does not know, the registry degrades
// to the first entry of that provider's list.
//
// # Uniqueness
//
// Model IDs are unique within one provider. The same model ID may appear
// under two providers (e.g. a Llama model served by both Groq and
// HuggingFace); those are distinct entries.
//
// # Overrides
//
// The built-in catalog can be replaced per provider from configuration:
//
//	providers:
//	  openai:
//	    models:
//	      - id: gpt-4o-mini
//	        name: GPT-4o Mini
package catalog
