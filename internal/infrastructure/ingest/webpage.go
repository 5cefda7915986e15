package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/salescoach/backend/internal/domain"
)

// Per-fragment caps, in characters
const (
	titleCap         = 200
	priceFragmentCap = 100
	tableRowCap      = 200
	listItemCap      = 500
	specBlockCap     = 500

	paragraphMinLength = 20
	paragraphMaxLength = 300
)

// DefaultUserAgent mimics a desktop browser; many dealer sites block bare HTTP clients
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var (
	listItemKeywords  = []string{"mpg", "engine", "horsepower", "transmission"}
	paragraphKeywords = []string{"vehicle", "car", "engine", "mpg", "price"}

	specSelectors = []string{
		".specs", ".specifications", ".spec-table", ".vehicle-specs",
		".key-specs", "#specs", "#specifications", "[data-spec]",
	}

	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// FetchConfig holds webpage fetcher settings
type FetchConfig struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// WebFetcher downloads a page and keeps only the fragments likely to carry vehicle specs
type WebFetcher struct {
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewWebFetcher creates a fetcher with a bounded timeout
func NewWebFetcher(cfg FetchConfig) *WebFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 5 << 20
	}
	return &WebFetcher{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Fetch retrieves rawURL and returns its relevant text fragments, newline-separated.
// Transport failures are returned as *domain.NetworkError.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", domain.ErrInvalidRequest, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", classifyFetchError(u.String(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return "", &domain.NetworkError{Kind: domain.NetworkForbidden, URL: u.String(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound:
		return "", &domain.NetworkError{Kind: domain.NetworkNotFound, URL: u.String(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", &domain.NetworkError{Kind: domain.NetworkOther, URL: u.String(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	text, err := ExtractFragments(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return "", classifyFetchError(u.String(), err)
	}
	return text, nil
}

func classifyFetchError(rawURL string, err error) error {
	var (
		dnsErr *net.DNSError
		netErr net.Error
	)
	kind := domain.NetworkOther
	switch {
	case errors.As(err, &dnsErr) && !dnsErr.IsTimeout:
		kind = domain.NetworkNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		kind = domain.NetworkTimeout
	}
	return &domain.NetworkError{Kind: kind, URL: rawURL, Err: err}
}

// ExtractFragments parses HTML and keeps the title, price-tagged elements, table rows,
// spec-like list items, descriptive paragraphs and known spec blocks.
func ExtractFragments(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var fc fragmentCollector

	title := spacedText(doc.Find("title").First())
	if title == "" {
		title = spacedText(doc.Find("h1").First())
	}
	fc.add(title, titleCap)

	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if hasPriceAttribute(s) {
			fc.add(spacedText(s), priceFragmentCap)
		}
	})

	doc.Find("tr").Each(func(_ int, s *goquery.Selection) {
		fc.add(spacedText(s), tableRowCap)
	})

	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		text := spacedText(s)
		if containsAny(strings.ToLower(text), listItemKeywords) {
			fc.add(text, listItemCap)
		}
	})

	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := spacedText(s)
		n := utf8.RuneCountInString(text)
		if n >= paragraphMinLength && n <= paragraphMaxLength && containsAny(strings.ToLower(text), paragraphKeywords) {
			fc.add(text, paragraphMaxLength)
		}
	})

	doc.Find(strings.Join(specSelectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		fc.add(spacedText(s), specBlockCap)
	})

	return strings.Join(fc.fragments, "\n"), nil
}

// fragmentCollector keeps fragments in discovery order, dropping empties and exact repeats
type fragmentCollector struct {
	fragments []string
	seen      map[string]struct{}
}

func (c *fragmentCollector) add(text string, limit int) {
	text = capRunes(text, limit)
	if text == "" {
		return
	}
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	if _, ok := c.seen[text]; ok {
		return
	}
	c.seen[text] = struct{}{}
	c.fragments = append(c.fragments, text)
}

// hasPriceAttribute reports whether an attribute name, class or id mentions "price"
func hasPriceAttribute(s *goquery.Selection) bool {
	if len(s.Nodes) == 0 {
		return false
	}
	for _, attr := range s.Nodes[0].Attr {
		if strings.Contains(strings.ToLower(attr.Key), "price") {
			return true
		}
		if (attr.Key == "class" || attr.Key == "id") && strings.Contains(strings.ToLower(attr.Val), "price") {
			return true
		}
	}
	return false
}

// spacedText returns the visible text of s with element boundaries turned into spaces,
// so that "<td>Engine</td><td>1.5L</td>" reads "Engine 1.5L".
func spacedText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				b.WriteString(c.Text())
			case "script", "style", "noscript", "#comment":
			default:
				b.WriteByte(' ')
				walk(c)
				b.WriteByte(' ')
			}
		})
	}
	walk(s)
	return flatten(b.String())
}

func flatten(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

func capRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
