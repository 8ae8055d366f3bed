package crawler

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"ChallengeScanner/internal/config"
	"ChallengeScanner/internal/domain"
)

const maxTextContent = 50000 // chars of extracted text kept per document

// Crawler discovers and fetches documents from a feed's base URL. It
// implements the "web" feed strategy.
type Crawler struct {
	client         *http.Client
	userAgent      string
	maxRetries     int
	maxDepth       int
	maxDocsPerFeed int
	visited        map[string]struct{}
	logger         *slog.Logger
}

// New wires an HTTP client from crawler configuration.
func New(cfg config.CrawlerConfig, client *http.Client, logger *slog.Logger) *Crawler {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Crawler{
		client:         client,
		userAgent:      cfg.UserAgent,
		maxRetries:     cfg.MaxRetries,
		maxDepth:       cfg.MaxDepth,
		maxDocsPerFeed: cfg.MaxDocsPerFeed,
		visited:        map[string]struct{}{},
		logger:         logger,
	}
}

// Name identifies the strategy inside the feed registry.
func (c *Crawler) Name() string {
	return "web"
}

// Scan discovers URLs under the feed's base URL and fetches each one, up to
// the per-feed document limit. Fetch failures are logged and skipped.
func (c *Crawler) Scan(ctx context.Context, feed domain.SourceFeed) ([]domain.Document, error) {
	urls, err := c.Discover(ctx, feed.BaseURL, c.maxDepth)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", feed.BaseURL, err)
	}

	if len(urls) > c.maxDocsPerFeed {
		urls = urls[:c.maxDocsPerFeed]
	}

	var docs []domain.Document
	for _, pageURL := range urls {
		doc, err := c.Fetch(ctx, pageURL)
		if err != nil {
			c.warn("fetch failed", "url", pageURL, "error", err)
			continue
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// Discover walks links breadth-first from baseURL, following only the same
// host, up to maxDepth levels. Returns discovered URLs in visit order.
func (c *Crawler) Discover(ctx context.Context, baseURL string, maxDepth int) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", baseURL, err)
	}

	type target struct {
		url   string
		depth int
	}

	var discovered []string
	found := map[string]struct{}{}
	seen := map[string]struct{}{}
	queue := []target{{url: baseURL, depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth > maxDepth {
			continue
		}
		if _, ok := seen[current.url]; ok {
			continue
		}
		seen[current.url] = struct{}{}

		doc, err := c.fetchDocument(ctx, current.url)
		if err != nil {
			c.warn("discover failed", "url", current.url, "error", err)
			continue
		}
		if doc == nil {
			continue
		}

		doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			resolved, err := url.Parse(href)
			if err != nil {
				return
			}
			absolute := base.ResolveReference(resolved)
			if absolute.Host != base.Host {
				return
			}

			abs := absolute.String()
			if _, ok := found[abs]; ok {
				return
			}
			if _, ok := seen[abs]; ok {
				return
			}
			found[abs] = struct{}{}

			discovered = append(discovered, abs)
			if current.depth < maxDepth {
				queue = append(queue, target{url: abs, depth: current.depth + 1})
			}
		})
	}

	return discovered, nil
}

// Fetch retrieves one URL and extracts the document fields: content hash,
// cleaned text, title, canonical URL, and a naive language guess. URLs
// already fetched by this crawler are skipped.
func (c *Crawler) Fetch(ctx context.Context, pageURL string) (domain.Document, error) {
	if _, ok := c.visited[pageURL]; ok {
		return domain.Document{}, fmt.Errorf("url already visited: %s", pageURL)
	}
	c.visited[pageURL] = struct{}{}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.Document{}, ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			}
		}

		doc, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		c.warn("fetch attempt failed", "url", pageURL, "attempt", attempt+1, "error", err)
	}

	return domain.Document{}, fmt.Errorf("fetch %s: %w", pageURL, lastErr)
}

func (c *Crawler) fetchOnce(ctx context.Context, pageURL string) (domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.Document{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Document{}, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read body: %w", err)
	}

	sum := sha256.Sum256(body)

	result := domain.Document{
		URL:          pageURL,
		CanonicalURL: pageURL,
		HTTPStatus:   resp.StatusCode,
		ContentType:  contentType(resp),
		HashSHA256:   hex.EncodeToString(sum[:]),
		FetchedAt:    time.Now().UTC(),
	}

	if strings.Contains(result.ContentType, "text/html") {
		parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return domain.Document{}, fmt.Errorf("parse document: %w", err)
		}
		result.TextContent = extractText(parsed)
		result.Title = extractTitle(parsed)
		if canonical := extractCanonical(parsed); canonical != "" {
			result.CanonicalURL = canonical
		}
	} else {
		result.TextContent = truncate(string(body), maxTextContent)
	}

	result.Language = detectLanguage(result.TextContent)
	return result, nil
}

func (c *Crawler) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if !strings.Contains(contentType(resp), "text/html") {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (c *Crawler) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func contentType(resp *http.Response) string {
	return resp.Header.Get("Content-Type")
}

// extractText strips script and style nodes and normalizes whitespace.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	return truncate(text, maxTextContent)
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractCanonical(doc *goquery.Document) string {
	href, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	return strings.TrimSpace(href)
}

var dutchMarkers = map[string]struct{}{
	"de": {}, "het": {}, "een": {}, "van": {}, "niet": {}, "voor": {},
}

// detectLanguage is a coarse EN/NL guess from common Dutch function words
// in the first part of the text.
func detectLanguage(text string) string {
	if text == "" {
		return "unknown"
	}

	sample := strings.ToLower(truncate(text, 500))
	for _, word := range strings.Fields(sample) {
		if _, ok := dutchMarkers[word]; ok {
			return "nl"
		}
	}
	return "en"
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
