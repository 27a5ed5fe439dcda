// Package docindex is the local knowledge base searched by document
// retrieval.
//
// # Storage
//
// Chunks live in a SQLite FTS5 virtual table and are ranked with bm25.
// A companion documents table records each source file's content hash so
// unchanged files are skipped on reindex:
//
//	chunks(content, source UNINDEXED, chunk_id UNINDEXED)
//	documents(path PRIMARY KEY, hash, chunks, indexed_at)
//
// # Ingestion
//
// Indexer walks a directory for .txt, .md and .markdown files. Markdown is
// flattened to plain text with goldmark before chunking. Chunks are 1000
// characters with a 200 character overlap, broken on whitespace where
// possible. An empty directory receives a sample document so a fresh
// install answers something.
//
// # Watching
//
// Watch reindexes after filesystem changes settle (500ms debounce) and
// invokes a callback so callers can drop cached search results.
//
// # Search
//
// Search never fails on an empty or unbuilt index; it returns no chunks.
package docindex
