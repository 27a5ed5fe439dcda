// ABOUTME: Fetches web pages and extracts their readable text
// ABOUTME: Strips scripts, styles, and chrome with goquery and collapses whitespace

package retrieval

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HTTPFetcher retrieves pages over HTTP.
type HTTPFetcher struct {
	UserAgent string
	client    *http.Client
}

// NewHTTPFetcher creates a fetcher. A nil client uses a 10s-timeout default;
// callers still bound each fetch with a context deadline.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{UserAgent: defaultUserAgent, client: client}
}

// Fetch returns the visible text of the page at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxPageBytes)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		doc, err := goquery.NewDocumentFromReader(body)
		if err != nil {
			return "", fmt.Errorf("parsing html: %w", err)
		}
		return pageText(doc), nil
	case strings.HasPrefix(mediaType, "text/"):
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("reading body: %w", err)
		}
		return collapseSpace(string(raw)), nil
	default:
		return "", fmt.Errorf("unsupported content type %q", mediaType)
	}
}

func pageText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template, svg, iframe, nav, footer, header").Remove()
	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	if root.Length() == 0 {
		root = doc.Selection
	}
	return collapseSpace(root.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
