package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"
)

const GoogleNewsRSSEndpoint = "https://news.google.com/rss/search"

// GoogleNewsRSS searches the public Google News RSS feed. It needs no API key.
type GoogleNewsRSS struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	parser     *rss.Parser
	timeout    time.Duration
}

func NewGoogleNewsRSS(httpClient *http.Client, endpoint, userAgent string, timeout time.Duration) *GoogleNewsRSS {
	if endpoint == "" {
		endpoint = GoogleNewsRSSEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &GoogleNewsRSS{
		httpClient: httpClient,
		endpoint:   endpoint,
		userAgent:  userAgent,
		parser:     &rss.Parser{},
		timeout:    timeout,
	}
}

func (g *GoogleNewsRSS) Name() string {
	return "gnews-rss"
}

func (g *GoogleNewsRSS) RequiresCredential() bool {
	return false
}

func (g *GoogleNewsRSS) Search(ctx context.Context, req SearchRequest) ([]SearchItem, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(timeoutCtx, "GET", g.searchURL(req), nil)
	if err != nil {
		return nil, fmt.Errorf("google news rss: failed to create request: %w", err)
	}
	if g.userAgent != "" {
		httpReq.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("google news rss: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google news rss: HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	// The rss parser keeps the <source> element the universal feed drops.
	feed, err := g.parser.Parse(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("google news rss: %w", err)
	}

	items := make([]SearchItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		var source string
		if item.Source != nil {
			source = strings.TrimSpace(item.Source.Title)
		}
		items = append(items, SearchItem{
			Link:   item.Link,
			Title:  trimSourceSuffix(item.Title, source),
			Source: source,
			Date:   item.PubDate,
		})
	}

	return items, nil
}

func (g *GoogleNewsRSS) searchURL(req SearchRequest) string {
	query := req.Query
	if when := whenOperator(req.DateRange); when != "" {
		query += " " + when
	}

	language := req.Language
	if language == "" {
		language = "en"
	}
	region := strings.ToUpper(req.Region)
	if region == "" {
		region = "US"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", language+"-"+region)
	params.Set("gl", region)
	params.Set("ceid", region+":"+language)

	return g.endpoint + "?" + params.Encode()
}

// whenOperator maps a "qdr:dN" hint to Google News' "when:Nd" operator.
func whenOperator(dateRange string) string {
	days := strings.TrimPrefix(dateRange, "qdr:d")
	if days == dateRange {
		return ""
	}
	if days == "" {
		days = "1"
	}
	return "when:" + days + "d"
}

// trimSourceSuffix drops the " - Publisher" suffix Google News appends to
// titles, only when it names the item's own source.
func trimSourceSuffix(title, source string) string {
	title = strings.TrimSpace(title)
	if source == "" {
		return title
	}
	if trimmed, ok := strings.CutSuffix(title, " - "+source); ok && trimmed != "" {
		return strings.TrimSpace(trimmed)
	}
	return title
}
