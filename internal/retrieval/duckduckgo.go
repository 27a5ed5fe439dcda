// ABOUTME: DuckDuckGo HTML search backend for web retrieval
// ABOUTME: Parses result links with goquery and throttles requests with a token bucket

package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	duckDuckGoURL    = "https://html.duckduckgo.com/html/"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxPageBytes     = 5 * 1024 * 1024
)

// DuckDuckGo searches the keyless DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	BaseURL   string
	UserAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewDuckDuckGo creates a searcher allowing perSecond requests with a
// small burst. A nil client uses a 10s-timeout default.
func NewDuckDuckGo(client *http.Client, perSecond float64) *DuckDuckGo {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &DuckDuckGo{
		BaseURL:   duckDuckGoURL,
		UserAgent: defaultUserAgent,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), 3),
	}
}

// Search returns up to maxResults organic results in rank order.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Link, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for search slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}
	return parseResults(doc, maxResults), nil
}

func parseResults(doc *goquery.Document, maxResults int) []Link {
	var links []Link
	seen := make(map[string]struct{})

	doc.Find("a.result__a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		target := resolveRedirect(href)
		if target == "" {
			return true
		}
		if _, dup := seen[target]; dup {
			return true
		}
		seen[target] = struct{}{}

		result := s.Closest(".result")
		links = append(links, Link{
			URL:     target,
			Title:   collapseSpace(s.Text()),
			Snippet: collapseSpace(result.Find(".result__snippet").First().Text()),
		})
		return maxResults <= 0 || len(links) < maxResults
	})
	return links
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links and drops
// ad links. Returns "" for anything that is not an absolute http(s) URL.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") {
		if strings.HasPrefix(u.Path, "/y.js") {
			return ""
		}
		if target := u.Query().Get("uddg"); target != "" {
			return resolveRedirect(target)
		}
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
