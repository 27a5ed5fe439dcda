// ABOUTME: SQLite FTS5 document index with bm25-ranked search
// ABOUTME: Opens or creates the database and answers top-k chunk queries

package docindex

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "modernc.org/sqlite"

	"github.com/2389/relay-gateway/internal/retrieval"
)

// Index is a searchable chunk store.
type Index struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens the index at path, creating the database and schema if needed.
// Parent directories are created if needed.
func Open(path string) (*Index, error) {
	logger := slog.Default().With("component", "docindex")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	// FTS5 writes are serialized by SQLite; one connection avoids SQLITE_BUSY
	// and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	idx := &Index{db: db, path: path, logger: logger}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("document index opened", "path", path)
	return idx, nil
}

func (idx *Index) createSchema() error {
	schema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS chunks USING fts5(
			content,
			source UNINDEXED,
			chunk_id UNINDEXED
		);

		CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			hash TEXT NOT NULL,
			chunks INTEGER NOT NULL,
			indexed_at DATETIME NOT NULL
		);
	`
	_, err := idx.db.Exec(schema)
	return err
}

// Close releases the database.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// Search returns up to k chunks ranked by relevance to query.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]retrieval.Chunk, error) {
	match := matchExpr(query)
	if match == "" || k <= 0 {
		return nil, nil
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT content, source FROM chunks
		WHERE chunks MATCH ?
		ORDER BY bm25(chunks)
		LIMIT ?`, match, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var out []retrieval.Chunk
	for rows.Next() {
		var c retrieval.Chunk
		if err := rows.Scan(&c.Content, &c.Source); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return out, nil
}

// Stats returns document and chunk counts.
func (idx *Index) Stats(ctx context.Context) (documents, chunks int, err error) {
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&documents); err != nil {
		return 0, 0, fmt.Errorf("counting documents: %w", err)
	}
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&chunks); err != nil {
		return 0, 0, fmt.Errorf("counting chunks: %w", err)
	}
	return documents, chunks, nil
}

// matchExpr turns free text into an FTS5 query that ORs the distinct terms.
// Each term is quoted so user input cannot inject FTS5 syntax.
func matchExpr(query string) string {
	terms := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(terms))
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
