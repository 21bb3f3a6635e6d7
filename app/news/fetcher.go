package news

import (
	"context"
	"log/slog"
	"time"
)

type SkipReason string

const (
	SkipBadDate       SkipReason = "bad_date"
	SkipOutsideWindow SkipReason = "outside_window"
	SkipDuplicate     SkipReason = "duplicate"
	SkipNoLink        SkipReason = "no_link"
	SkipUnextractable SkipReason = "unextractable"
)

const publishedLayout = "2006-01-02 15:04 MST"

// FetchResult reports what one query produced, including why items were dropped.
type FetchResult struct {
	Articles []ArticleRecord
	Attempts int
	Skipped  map[SkipReason]int
	LastErr  error
}

type FetcherOptions struct {
	Domains            []string
	Language           string
	Region             string
	MaxAttempts        int
	Backoff            Pacer
	RetryOnEmptyWindow bool
	IncludePublishedAt bool
}

// Fetcher runs one search query through filtering and extraction with
// credential rotation and bounded retries.
type Fetcher struct {
	provider  SearchProvider
	filter    *TimeFilter
	extractor *Extractor
	pool      *CredentialPool
	opts      FetcherOptions
}

func NewFetcher(provider SearchProvider, filter *TimeFilter, extractor *Extractor, pool *CredentialPool, opts FetcherOptions) *Fetcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Domains == nil {
		opts.Domains = DefaultPublisherDomains
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	return &Fetcher{
		provider:  provider,
		filter:    filter,
		extractor: extractor,
		pool:      pool,
		opts:      opts,
	}
}

// Fetch never fails; exhausting every attempt yields whatever was accumulated.
// seen holds URLs already extracted (or tried) in this run and is updated in
// place, so no URL reaches the extractor twice.
func (f *Fetcher) Fetch(ctx context.Context, query string, mode TimeFilterMode, seen map[string]bool) FetchResult {
	if seen == nil {
		seen = make(map[string]bool)
	}

	result := FetchResult{
		Articles: []ArticleRecord{},
		Skipped:  make(map[SkipReason]int),
	}

	req := SearchRequest{
		Query:     BuildQuery(f.opts.Domains, query),
		DateRange: mode.DateRangeHint(),
		Language:  f.opts.Language,
		Region:    f.opts.Region,
	}

	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			result.LastErr = ctx.Err()
			break
		}
		result.Attempts = attempt

		if f.provider.RequiresCredential() {
			req.APIKey = f.pool.Next(ProviderSearch)
		}

		items, err := f.provider.Search(ctx, req)
		switch {
		case err != nil:
			result.LastErr = err
			slog.Warn("Search attempt failed",
				"provider", f.provider.Name(),
				"query", query,
				"attempt", attempt,
				"max_attempts", f.opts.MaxAttempts,
				"error", err)
		case len(items) == 0:
			slog.Info("Search returned no items",
				"provider", f.provider.Name(),
				"query", query,
				"attempt", attempt)
		default:
			f.collect(ctx, items, mode, seen, &result)
			if len(result.Articles) > 0 || !f.opts.RetryOnEmptyWindow {
				return result
			}
			slog.Info("No articles survived filtering, retrying",
				"query", query,
				"attempt", attempt)
		}

		if attempt < f.opts.MaxAttempts {
			if werr := Wait(ctx, f.opts.Backoff, attempt); werr != nil {
				result.LastErr = werr
				break
			}
		}
	}

	return result
}

func (f *Fetcher) collect(ctx context.Context, items []SearchItem, mode TimeFilterMode, seen map[string]bool, result *FetchResult) {
	for _, item := range items {
		if item.Link == "" {
			result.Skipped[SkipNoLink]++
			continue
		}
		if seen[item.Link] {
			result.Skipped[SkipDuplicate]++
			continue
		}

		decision := f.filter.Run(item.Date, mode)
		if !decision.Keep {
			result.Skipped[decision.Reason]++
			if decision.Err != nil {
				slog.Warn("Skipping item with unparseable date", "url", item.Link, "date", item.Date, "error", decision.Err)
			} else {
				slog.Debug("Skipping item outside window", "url", item.Link, "published", decision.Local.Format(time.RFC3339), "window", mode.String())
			}
			continue
		}

		seen[item.Link] = true
		extraction := f.extractor.Extract(ctx, item.Link)
		if !extraction.OK() {
			result.Skipped[SkipUnextractable]++
			slog.Warn("Skipping unextractable article", "url", item.Link, "reason", extraction.Reason)
			continue
		}

		record := f.buildRecord(item, extraction)
		if record.URL != item.Link && seen[record.URL] {
			result.Skipped[SkipDuplicate]++
			slog.Debug("Skipping article already seen under its canonical URL", "url", item.Link, "canonical", record.URL)
			continue
		}
		if f.opts.IncludePublishedAt {
			record.PublishedAt = decision.Local.Format(publishedLayout)
		}

		seen[record.URL] = true
		result.Articles = append(result.Articles, record)
	}
}

// buildRecord prefers provider metadata for the direct tier and the
// extraction API's own fields for the API tier.
func (f *Fetcher) buildRecord(item SearchItem, extraction Extraction) ArticleRecord {
	if extraction.Tier == TierAPI {
		record := extraction.Record
		if record.Headline == "" {
			record.Headline = item.Title
		}
		if record.SiteName == "" {
			record.SiteName = item.Source
		}
		if record.URL == "" {
			record.URL = item.Link
		}
		return record
	}

	return ArticleRecord{
		Headline: item.Title,
		Author:   item.Source,
		SiteName: item.Source,
		Content:  extraction.Record.Content,
		URL:      item.Link,
	}
}
