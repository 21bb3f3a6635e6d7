package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DiffbotEndpoint = "https://api.diffbot.com/v3/article"

var ErrEmptyObjects = errors.New("extraction response has no objects")

// ArticleAPI is the second extraction tier: a paid structured-extraction service.
type ArticleAPI interface {
	Article(ctx context.Context, pageURL, token string) (ArticleRecord, error)
}

type DiffbotClient struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

func NewDiffbotClient(httpClient *http.Client, endpoint string, timeout time.Duration) *DiffbotClient {
	if endpoint == "" {
		endpoint = DiffbotEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DiffbotClient{endpoint: endpoint, httpClient: httpClient, timeout: timeout}
}

type diffbotResponse struct {
	Objects   []diffbotObject `json:"objects"`
	Error     string          `json:"error"`
	ErrorCode int             `json:"errorCode"`
}

type diffbotObject struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	SiteName string `json:"siteName"`
	Text     string `json:"text"`
	PageURL  string `json:"pageUrl"`
}

func (c *DiffbotClient) Article(ctx context.Context, pageURL, token string) (ArticleRecord, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("url", pageURL)
	params.Set("token", token)

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return ArticleRecord{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ArticleRecord{}, fmt.Errorf("diffbot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return ArticleRecord{}, fmt.Errorf("diffbot HTTP error: %d", resp.StatusCode)
	}

	var raw diffbotResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return ArticleRecord{}, fmt.Errorf("diffbot decode: %w", err)
	}

	if raw.Error != "" {
		return ArticleRecord{}, fmt.Errorf("diffbot error %d: %s", raw.ErrorCode, raw.Error)
	}
	if len(raw.Objects) == 0 {
		return ArticleRecord{}, ErrEmptyObjects
	}

	object := raw.Objects[0]
	record := ArticleRecord{
		Headline: strings.TrimSpace(object.Title),
		Author:   strings.TrimSpace(object.Author),
		SiteName: strings.TrimSpace(object.SiteName),
		Content:  strings.TrimSpace(object.Text),
		URL:      object.PageURL,
	}
	if record.URL == "" {
		record.URL = pageURL
	}
	if record.Content == "" {
		return ArticleRecord{}, fmt.Errorf("diffbot returned no text")
	}

	return record, nil
}
