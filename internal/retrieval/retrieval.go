// ABOUTME: Retrieval coordinator for web search and document search
// ABOUTME: Bounded concurrent page fetches, LRU result caches, and miss collapsing

package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/2389/relay-gateway/internal/cache"
	"github.com/2389/relay-gateway/internal/metrics"
)

// Placeholders returned when a lookup yields nothing.
const (
	NoWebResults  = "No relevant web results found."
	NoDocuments   = "No relevant documents found."
	snippetSuffix = "..."
)

// Chunk is one retrieved passage of a document.
type Chunk struct {
	Content string
	Source  string
}

// DocumentIndex answers top-k similarity queries.
type DocumentIndex interface {
	Search(ctx context.Context, query string, k int) ([]Chunk, error)
}

// Link is one ranked search hit.
type Link struct {
	URL     string
	Title   string
	Snippet string
}

// Searcher returns ranked links for a query.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Link, error)
}

// Fetcher returns the readable text of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Config tunes a Coordinator. Zero fields take defaults.
type Config struct {
	MaxResults    int
	Workers       int
	FetchTimeout  time.Duration
	SnippetLength int
	DocumentK     int
	WebCacheSize  int
	DocCacheSize  int
}

func (c Config) withDefaults() Config {
	if c.MaxResults <= 0 {
		c.MaxResults = 3
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 3 * time.Second
	}
	if c.SnippetLength <= 0 {
		c.SnippetLength = 800
	}
	if c.DocumentK <= 0 {
		c.DocumentK = 5
	}
	return c
}

type webKey struct {
	query string
	max   int
}

// Coordinator performs cached web and document lookups.
type Coordinator struct {
	cfg      Config
	searcher Searcher
	fetcher  Fetcher
	docs     DocumentIndex

	webCache *cache.LRU[webKey, string]
	docCache *cache.LRU[string, string]
	inflight singleflight.Group

	logger *slog.Logger
}

// New creates a Coordinator. A nil searcher or docs makes the matching
// lookup always yield its placeholder. A nil fetcher uses NewHTTPFetcher.
func New(cfg Config, searcher Searcher, fetcher Fetcher, docs DocumentIndex, logger *slog.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	if fetcher == nil {
		fetcher = NewHTTPFetcher(nil)
	}

	webCache, err := cache.New[webKey, string](cfg.WebCacheSize)
	if err != nil {
		return nil, fmt.Errorf("web cache: %w", err)
	}
	docCache, err := cache.New[string, string](cfg.DocCacheSize)
	if err != nil {
		return nil, fmt.Errorf("document cache: %w", err)
	}

	return &Coordinator{
		cfg:      cfg,
		searcher: searcher,
		fetcher:  fetcher,
		docs:     docs,
		webCache: webCache,
		docCache: docCache,
		logger:   logger.With("component", "retrieval"),
	}, nil
}

type lookup struct {
	text      string
	cacheable bool
}

// WebSearch returns formatted page text for the top maxResults hits.
// maxResults <= 0 uses the configured default.
func (c *Coordinator) WebSearch(ctx context.Context, query string, maxResults int) string {
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}
	key := webKey{query: cache.NormalizeQuery(query), max: maxResults}
	if key.query == "" {
		return NoWebResults
	}

	if text, ok := c.webCache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("web", "hit").Inc()
		return text
	}
	metrics.CacheLookups.WithLabelValues("web", "miss").Inc()

	return c.shared(ctx, fmt.Sprintf("web\x00%d\x00%s", key.max, key.query), NoWebResults, func(sctx context.Context) lookup {
		res := c.webLookup(sctx, query, maxResults)
		if res.cacheable {
			c.webCache.Add(key, res.text)
		}
		return res
	})
}

// shared runs fn once per key across concurrent callers. fn runs detached
// from any single caller's cancellation so one caller going away does not
// change what the others receive; a cancelled caller returns placeholder
// without waiting.
func (c *Coordinator) shared(ctx context.Context, key, placeholder string, fn func(context.Context) lookup) string {
	detached := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key, func() (any, error) {
		return fn(detached), nil
	})
	select {
	case r := <-ch:
		return r.Val.(lookup).text
	case <-ctx.Done():
		return placeholder
	}
}

func (c *Coordinator) webLookup(ctx context.Context, query string, maxResults int) lookup {
	if c.searcher == nil {
		return lookup{text: NoWebResults}
	}
	sctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	links, err := c.searcher.Search(sctx, query, maxResults)
	cancel()
	if err != nil {
		c.logger.Warn("web search failed", "query", query, "error", err)
		return lookup{text: NoWebResults}
	}
	if len(links) == 0 {
		return lookup{text: NoWebResults, cacheable: true}
	}
	if len(links) > maxResults {
		links = links[:maxResults]
	}

	snippets := make([]string, len(links))
	var g errgroup.Group
	g.SetLimit(c.cfg.Workers)
	for i, link := range links {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
			defer cancel()

			text, err := c.fetcher.Fetch(fctx, link.URL)
			if err != nil {
				metrics.FetchFailures.Inc()
				c.logger.Debug("page fetch failed", "url", link.URL, "error", err)
				return nil
			}
			if text = strings.TrimSpace(text); text != "" {
				snippets[i] = "Source: " + link.URL + "\n" + truncateRunes(text, c.cfg.SnippetLength)
			}
			return nil
		})
	}
	_ = g.Wait()

	var parts []string
	for _, s := range snippets {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return lookup{text: NoWebResults}
	}
	return lookup{text: strings.Join(parts, "\n\n"), cacheable: true}
}

// DocumentSearch returns the top chunks for query from the document index.
func (c *Coordinator) DocumentSearch(ctx context.Context, query string) string {
	key := cache.NormalizeQuery(query)
	if key == "" || c.docs == nil {
		return NoDocuments
	}

	if text, ok := c.docCache.Get(key); ok {
		metrics.CacheLookups.WithLabelValues("documents", "hit").Inc()
		return text
	}
	metrics.CacheLookups.WithLabelValues("documents", "miss").Inc()

	return c.shared(ctx, "doc\x00"+key, NoDocuments, func(sctx context.Context) lookup {
		res := c.documentLookup(sctx, query)
		if res.cacheable {
			c.docCache.Add(key, res.text)
		}
		return res
	})
}

func (c *Coordinator) documentLookup(ctx context.Context, query string) lookup {
	chunks, err := c.docs.Search(ctx, query, c.cfg.DocumentK)
	if err != nil {
		c.logger.Warn("document search failed", "query", query, "error", err)
		return lookup{text: NoDocuments}
	}

	parts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		content := strings.TrimSpace(ch.Content)
		if content == "" {
			continue
		}
		if ch.Source != "" {
			content = "Source: " + ch.Source + "\n" + content
		}
		parts = append(parts, content)
	}
	if len(parts) == 0 {
		return lookup{text: NoDocuments, cacheable: true}
	}
	return lookup{text: strings.Join(parts, "\n\n"), cacheable: true}
}

// PurgeDocuments drops cached document results, e.g. after a reindex.
func (c *Coordinator) PurgeDocuments() {
	c.docCache.Purge()
	c.logger.Debug("document cache purged")
}

// CacheStats reports counters for the web and document caches.
func (c *Coordinator) CacheStats() (web, documents cache.Stats) {
	return c.webCache.Stats(), c.docCache.Stats()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + snippetSuffix
}
