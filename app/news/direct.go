package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"
)

const maxPageSize = 5 << 20

// DirectSource is the first extraction tier: fetch the page and run the
// readability heuristic over it.
type DirectSource struct {
	httpClient    *http.Client
	extractor     *ContentExtractor
	userAgent     string
	timeout       time.Duration
	respectRobots bool

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

type DirectOptions struct {
	UserAgent     string
	Timeout       time.Duration
	RespectRobots bool
}

func NewDirectSource(httpClient *http.Client, extractor *ContentExtractor, opts DirectOptions) *DirectSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &DirectSource{
		httpClient:    httpClient,
		extractor:     extractor,
		userAgent:     opts.UserAgent,
		timeout:       opts.Timeout,
		respectRobots: opts.RespectRobots,
		robots:        make(map[string]*robotstxt.RobotsData),
	}
}

func (s *DirectSource) Extract(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" {
		return "", fmt.Errorf("invalid URL %q", rawURL)
	}

	if s.respectRobots && !s.allowed(ctx, pageURL) {
		return "", fmt.Errorf("disallowed by robots.txt")
	}

	data, err := s.fetchPage(ctx, pageURL.String())
	if err != nil {
		return "", fmt.Errorf("failed to fetch article content: %w", err)
	}

	return s.extractor.Run(data, pageURL)
}

func (s *DirectSource) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	body, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		body = resp.Body
	}

	data, err := io.ReadAll(io.LimitReader(body, maxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// allowed consults robots.txt once per host; an unreachable robots.txt allows everything.
func (s *DirectSource) allowed(ctx context.Context, pageURL *url.URL) bool {
	host := pageURL.Scheme + "://" + pageURL.Host

	s.mu.Lock()
	data, seen := s.robots[host]
	if !seen {
		data = s.fetchRobots(ctx, host)
		s.robots[host] = data
	}
	s.mu.Unlock()

	if data == nil {
		return true
	}
	return data.TestAgent(pageURL.EscapedPath(), s.userAgent)
}

func (s *DirectSource) fetchRobots(ctx context.Context, host string) *robotstxt.RobotsData {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		slog.Debug("robots.txt unavailable", "host", host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		slog.Debug("robots.txt unparseable", "host", host, "error", err)
		return nil
	}
	return data
}
