// Package cache provides the size-bounded result caches used by retrieval.
//
// # Overview
//
// LRU wraps a fixed-capacity least-recently-used map and counts hits and
// misses. Entries never expire; they leave the cache only when evicted by
// newer entries or by an explicit Purge.
//
// # Keys
//
// Query-keyed caches normalize their keys with NormalizeQuery so that
// "Go  Modules" and "go modules" share one entry.
package cache
