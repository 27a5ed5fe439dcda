// Package router turns one chat request into an ordered stream of events.
//
// # Flow
//
//  1. Reject an empty query with a single error event
//  2. Resolve an adapter for the requested provider and model; when a
//     non-default provider is unusable, emit one warning notice and use
//     the default provider instead
//  3. With no retrieval enabled, stream the model's answer to the raw query
//  4. With web or document retrieval enabled, run the reasoning loop with
//     the matching tools and emit its final answer
//  5. Emit done with request metadata
//
// Every event carries the request ID. Nothing is emitted after done or
// error. A canceled context ends the request with a "request cancelled"
// error event.
package router
