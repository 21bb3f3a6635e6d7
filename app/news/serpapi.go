package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const SerpAPIEndpoint = "https://serpapi.com/search"

type SerpAPIClient struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

func NewSerpAPIClient(httpClient *http.Client, endpoint string, timeout time.Duration) *SerpAPIClient {
	if endpoint == "" {
		endpoint = SerpAPIEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SerpAPIClient{endpoint: endpoint, httpClient: httpClient, timeout: timeout}
}

func (c *SerpAPIClient) Name() string {
	return "serpapi"
}

func (c *SerpAPIClient) RequiresCredential() bool {
	return true
}

type serpResponse struct {
	NewsResults []serpNewsResult `json:"news_results"`
	Error       string           `json:"error"`
}

type serpNewsResult struct {
	Title   string           `json:"title"`
	Link    string           `json:"link"`
	Date    string           `json:"date"`
	Source  serpSource       `json:"source"`
	Stories []serpNewsResult `json:"stories"`
}

type serpSource struct {
	Name string `json:"name"`
}

func (c *SerpAPIClient) Search(ctx context.Context, req SearchRequest) ([]SearchItem, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("engine", "google_news")
	params.Set("q", req.Query)
	if req.DateRange != "" {
		params.Set("tbs", req.DateRange)
	}
	if req.Language != "" {
		params.Set("hl", req.Language)
	}
	if req.Region != "" {
		params.Set("gl", req.Region)
	}
	params.Set("api_key", req.APIKey)

	httpReq, err := http.NewRequestWithContext(timeoutCtx, "GET", c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("serpapi HTTP error: %d", resp.StatusCode)
	}

	var raw serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("serpapi decode: %w", err)
	}

	if raw.Error != "" && len(raw.NewsResults) == 0 {
		if strings.Contains(strings.ToLower(raw.Error), "hasn't returned any results") {
			return nil, nil
		}
		return nil, fmt.Errorf("serpapi error: %s", raw.Error)
	}

	items := make([]SearchItem, 0, len(raw.NewsResults))
	for _, result := range raw.NewsResults {
		if result.Link == "" && len(result.Stories) > 0 {
			for _, story := range result.Stories {
				items = append(items, story.item())
			}
			continue
		}
		items = append(items, result.item())
	}

	return items, nil
}

func (r serpNewsResult) item() SearchItem {
	return SearchItem{
		Link:   r.Link,
		Title:  r.Title,
		Source: r.Source.Name,
		Date:   r.Date,
	}
}
