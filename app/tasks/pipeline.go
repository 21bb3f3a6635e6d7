package tasks

import (
	"fmt"
	"net/http"
	"time"

	"github.com/lysyi3m/regwatch/app/cfg"
	"github.com/lysyi3m/regwatch/app/news"
)

var _ RunnerBuilder = (*Pipeline)(nil)

// Pipeline owns the long-lived retrieval components and hands out a runner
// per job run, each with its own credential cursors.
type Pipeline struct {
	search           news.SearchProvider
	filter           *news.TimeFilter
	direct           news.PageSource
	api              news.ArticleAPI
	searchKeys       []string
	extractionTokens []string
	fetcherOpts      news.FetcherOptions
	extractorOpts    news.ExtractorOptions
	pairPacer        news.Pacer
}

func NewPipeline(c *cfg.Cfg, httpClient *http.Client) *Pipeline {
	var search news.SearchProvider
	switch c.SearchProvider {
	case "gnews-rss":
		search = news.NewGoogleNewsRSS(httpClient, "", c.UserAgent, c.FetchTimeout)
	default:
		search = news.NewSerpAPIClient(httpClient, "", c.FetchTimeout)
	}

	direct := news.NewDirectSource(httpClient, news.NewContentExtractor(c.MinContentLength), news.DirectOptions{
		UserAgent:     c.UserAgent,
		Timeout:       c.FetchTimeout,
		RespectRobots: c.RespectRobots,
	})

	return &Pipeline{
		search:           search,
		filter:           news.NewTimeFilter(c.Location),
		direct:           direct,
		api:              news.NewDiffbotClient(httpClient, "", c.FetchTimeout),
		searchKeys:       c.SerpAPIKeys,
		extractionTokens: c.DiffbotTokens,
		fetcherOpts: news.FetcherOptions{
			Domains:            c.PublisherDomains,
			Language:           c.Language,
			Region:             c.Region,
			MaxAttempts:        3,
			Backoff:            news.Exponential{Base: 5 * time.Second, Max: 30 * time.Second},
			RetryOnEmptyWindow: c.RetryOnEmptyWindow,
		},
		extractorOpts: news.ExtractorOptions{
			MaxAttempts: 3,
			RetryPacer:  news.Fixed(5 * time.Second),
			PolitePacer: news.Jitter{Min: 3 * time.Second, Max: 7 * time.Second},
		},
		pairPacer: news.Jitter{Min: c.PairDelayMin, Max: c.PairDelayMax},
	}
}

func (p *Pipeline) Build(includePublishedAt bool) (KeywordRunner, error) {
	credentials := map[news.Provider][]string{
		news.ProviderSearch:     p.searchKeys,
		news.ProviderExtraction: p.extractionTokens,
	}

	required := []news.Provider{news.ProviderExtraction}
	if p.search.RequiresCredential() {
		required = append(required, news.ProviderSearch)
	}

	pool, err := news.NewCredentialPool(credentials, required...)
	if err != nil {
		return nil, fmt.Errorf("failed to build credential pool: %w", err)
	}

	extractor := news.NewExtractor(p.direct, p.api, pool, p.extractorOpts)
	fetcherOpts := p.fetcherOpts
	fetcherOpts.IncludePublishedAt = includePublishedAt
	fetcher := news.NewFetcher(p.search, p.filter, extractor, pool, fetcherOpts)

	return news.NewRunner(fetcher, p.pairPacer), nil
}
