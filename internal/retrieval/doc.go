// Package retrieval gathers context for augmented queries.
//
// # Overview
//
// A Coordinator answers two kinds of lookup, each returning one string
// ready to hand to a model:
//
//   - WebSearch: ranked links from a Searcher, pages fetched concurrently
//     by a bounded worker pool, text extracted and truncated, joined in
//     rank order as "Source: <url>\n<text>" blocks
//   - DocumentSearch: top-k chunks from a DocumentIndex, joined the same way
//
// Lookups never fail. Errors are logged and turned into a fixed placeholder
// ("No relevant web results found." or "No relevant documents found.").
//
// # Caching
//
// Results are cached in size-bounded LRUs keyed by the normalized query
// (web results also by result count). Concurrent misses for the same key
// share one lookup. Placeholders produced by failures are not cached.
//
// # Tools
//
// Tools exposes the lookups to the reasoning loop under the names
// "Web Search" and "Document Search".
package retrieval
