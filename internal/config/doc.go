// Package config handles configuration loading for relay-gateway.
//
// # Overview
//
// Configuration is loaded from YAML or TOML files with environment variable
// expansion. A missing file is not an error for the serve command; the
// built-in defaults apply and API keys come from the environment.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path given with --config
//  2. Path from RELAY_CONFIG environment variable
//  3. $XDG_CONFIG_HOME/relay/gateway.yaml (or ~/.config/relay/gateway.yaml)
//
// Files with a .toml extension are parsed as TOML.
//
// # Environment Variable Expansion
//
//	providers:
//	  openai:
//	    api_key: "${OPENAI_API_KEY}"
//
// Providers without a key in the file fall back to OPENAI_API_KEY,
// COHERE_API_KEY, HF_API_KEY (or HUGGINGFACE_API_KEY), GROQ_API_KEY,
// MISTRAL_API_KEY, ANTHROPIC_API_KEY, XAI_API_KEY, DEEPSEEK_API_KEY and
// DASHSCOPE_API_KEY.
//
// # Configuration Sections
//
//	server:
//	  http_addr: "127.0.0.1:8000"
//	  grpc_addr: "127.0.0.1:50051"   # health service
//	  shutdown_timeout: "10s"
//
//	default_provider: openai
//	providers:
//	  anthropic:
//	    default_model: claude-3-5-haiku-20241022
//	    temperature: 0.3
//	    timeout: "90s"
//	  huggingface:
//	    models:
//	      - id: mistralai/Mistral-7B-Instruct-v0.3
//	        name: Mistral 7B Instruct
//
//	retrieval:
//	  max_results: 3
//	  workers: 4
//	  fetch_timeout: "3s"
//	  snippet_length: 800
//	  document_k: 5
//	  search_rate: 1
//
//	agent:
//	  max_rounds: 6   # 1..10
//
//	documents:
//	  dir: ./documents
//	  index_path: ~/.local/share/relay/index.db
//	  watch: true
//
// Logging, metrics and tailscale sections match the other gateways:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
