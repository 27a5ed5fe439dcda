// Package gateway orchestrates the relay-gateway server components.
//
// # Overview
//
// The gateway package owns the provider registry, retrieval coordinator,
// document index, query router and session hub, and exposes them over HTTP,
// WebSocket and a gRPC health service.
//
// # HTTP API
//
//	POST /api/chat/query    SSE stream of one query's events
//	GET  /api/chat/models   provider -> ordered model list
//	GET  /api/chat/health   status and per-provider credential readiness
//	GET  /ws                WebSocket chat session
//	GET  /health            liveness
//	GET  /health/ready      200 when the default provider has an API key
//	GET  /metrics           Prometheus metrics (when enabled)
//
// A query body looks like:
//
//	{"query": "...", "provider": "anthropic", "model": "...", "use_web": true, "use_docs": false}
//
// use_docs defaults to true. model_id and use_rag are accepted as aliases.
//
// # SSE Events
//
// Each event is written as:
//
//	event: stream
//	data: {"type":"stream","request_id":"...","content":"Par"}
//
// The stream starts with an ack and ends with exactly one done or error
// event. Fallback warnings arrive as notice events before any content.
//
// # WebSocket
//
// Clients send {"type": "chat_query", ...query fields} or
// {"type": "list_models"}. The server greets with a "Connected to server"
// notice, acks each query, then relays its events. Queries on one connection
// run in the order received; closing the connection cancels the running one.
//
// # gRPC
//
// The standard grpc.health.v1 service reports overall status under "" and
// each provider under "relay.provider.<id>".
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return gw.Run(ctx) // blocks until ctx is canceled
package gateway
