// ABOUTME: Builds the document index from a directory of text and markdown files
// ABOUTME: Skips unchanged files by content hash and removes vanished documents

package docindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/2389/relay-gateway/internal/metrics"
)

// SampleDocument is written to an empty documents directory.
const SampleDocument = `# Sample Knowledge Base Document

This is a sample document for the relay gateway knowledge base.

The gateway allows users to:
1. Ask questions about documents in the knowledge base
2. Search the web for up-to-date information
3. Choose between different LLM providers

To add more documents to the knowledge base, place them in the documents
folder and run "relay-gateway index" again to update the index.
`

// IndexResult summarizes one indexing run.
type IndexResult struct {
	Indexed   int
	Unchanged int
	Removed   int
	Failed    int
	Chunks    int
}

// IndexDir brings the index in line with the supported files under dir.
// A missing or empty dir is created and seeded with SampleDocument.
func (idx *Index) IndexDir(ctx context.Context, dir string) (IndexResult, error) {
	var res IndexResult

	files, err := documentFiles(dir)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		sample, err := writeSample(dir)
		if err != nil {
			return res, err
		}
		idx.logger.Info("created sample document", "path", sample)
		files = []string{sample}
	}

	known, err := idx.knownHashes(ctx)
	if err != nil {
		return res, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		changed, err := idx.indexFile(ctx, path, known[path])
		delete(known, path)
		switch {
		case err != nil:
			res.Failed++
			idx.logger.Warn("failed to index document", "path", path, "error", err)
		case changed:
			res.Indexed++
		default:
			res.Unchanged++
		}
	}

	for path := range known {
		if err := idx.removeDocument(ctx, path); err != nil {
			return res, err
		}
		res.Removed++
	}

	_, res.Chunks, err = idx.Stats(ctx)
	if err != nil {
		return res, err
	}
	metrics.IndexedChunks.Set(float64(res.Chunks))

	idx.logger.Info("indexing complete",
		"dir", dir,
		"indexed", res.Indexed,
		"unchanged", res.Unchanged,
		"removed", res.Removed,
		"failed", res.Failed,
		"chunks", res.Chunks)
	return res, nil
}

func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

func documentFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if isDocument(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return files, nil
}

func writeSample(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating documents directory: %w", err)
	}
	path := filepath.Join(dir, "sample.txt")
	if err := os.WriteFile(path, []byte(SampleDocument), 0644); err != nil {
		return "", fmt.Errorf("writing sample document: %w", err)
	}
	return path, nil
}

func (idx *Index) knownHashes(ctx context.Context) (map[string]string, error) {
	rows, err := idx.db.QueryContext(ctx, "SELECT path, hash FROM documents")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	known := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		known[path] = hash
	}
	return known, rows.Err()
}

// indexFile replaces the chunks of one file. Returns false if the stored
// hash matches and nothing was written.
func (idx *Index) indexFile(ctx context.Context, path, prevHash string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading: %w", err)
	}
	hash := strconv.FormatUint(xxhash.Sum64(raw), 16)
	if hash == prevHash {
		return false, nil
	}

	content := string(raw)
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".md" || ext == ".markdown" {
		content = markdownText(raw)
	}
	pieces := splitChunks(content, ChunkSize, ChunkOverlap)

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source = ?", path); err != nil {
		return false, fmt.Errorf("clearing old chunks: %w", err)
	}
	for i, piece := range pieces {
		chunkID := strconv.FormatUint(xxhash.Sum64String(path+"#"+strconv.Itoa(i)), 16)
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (content, source, chunk_id) VALUES (?, ?, ?)",
			piece, path, chunkID); err != nil {
			return false, fmt.Errorf("inserting chunk: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (path, hash, chunks, indexed_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, chunks = excluded.chunks, indexed_at = excluded.indexed_at`,
		path, hash, len(pieces), time.Now().UTC()); err != nil {
		return false, fmt.Errorf("recording document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing: %w", err)
	}

	idx.logger.Debug("indexed document", "path", path, "chunks", len(pieces))
	return true, nil
}

func (idx *Index) removeDocument(ctx context.Context, path string) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source = ?", path); err != nil {
		return fmt.Errorf("removing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path); err != nil {
		return fmt.Errorf("removing document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	idx.logger.Debug("removed document", "path", path)
	return nil
}
