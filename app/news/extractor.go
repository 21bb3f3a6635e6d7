package news

import (
	"context"
	"log/slog"
)

type Tier string

const (
	TierDirect Tier = "direct"
	TierAPI    Tier = "api"
	TierNone   Tier = "none"
)

// PageSource is the first extraction tier.
type PageSource interface {
	Extract(ctx context.Context, rawURL string) (string, error)
}

// Extraction is the result of resolving one URL. Record carries only Content
// for the direct tier; the API tier fills every field it returns.
type Extraction struct {
	Tier     Tier
	Record   ArticleRecord
	Attempts int
	Reason   string
}

func (e Extraction) OK() bool {
	return e.Tier != TierNone
}

type ExtractorOptions struct {
	MaxAttempts int
	RetryPacer  Pacer
	PolitePacer Pacer
}

// Extractor runs the two-tier fallback chain. It never returns an error;
// failures degrade to a TierNone extraction.
type Extractor struct {
	direct      PageSource
	api         ArticleAPI
	pool        *CredentialPool
	maxAttempts int
	retryPacer  Pacer
	politePacer Pacer
}

func NewExtractor(direct PageSource, api ArticleAPI, pool *CredentialPool, opts ExtractorOptions) *Extractor {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Extractor{
		direct:      direct,
		api:         api,
		pool:        pool,
		maxAttempts: opts.MaxAttempts,
		retryPacer:  opts.RetryPacer,
		politePacer: opts.PolitePacer,
	}
}

func (e *Extractor) Extract(ctx context.Context, rawURL string) Extraction {
	text, err := e.direct.Extract(ctx, rawURL)
	if err == nil && text != "" {
		return Extraction{Tier: TierDirect, Record: ArticleRecord{Content: text, URL: rawURL}}
	}
	slog.Debug("Direct extraction failed, falling back to API", "url", rawURL, "error", err)

	return e.extractViaAPI(ctx, rawURL)
}

func (e *Extractor) extractViaAPI(ctx context.Context, rawURL string) Extraction {
	if e.api == nil || e.pool == nil || e.pool.Size(ProviderExtraction) == 0 {
		return Extraction{Tier: TierNone, Reason: "no extraction API configured"}
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		attempts = attempt
		token := e.pool.Next(ProviderExtraction)

		record, err := e.api.Article(ctx, rawURL, token)
		if err == nil {
			if werr := Wait(ctx, e.politePacer, attempt); werr != nil {
				slog.Debug("Polite delay interrupted", "error", werr)
			}
			return Extraction{Tier: TierAPI, Record: record, Attempts: attempt}
		}

		lastErr = err
		slog.Warn("Extraction API attempt failed",
			"url", rawURL,
			"attempt", attempt,
			"max_attempts", e.maxAttempts,
			"error", err)

		if attempt < e.maxAttempts {
			if werr := Wait(ctx, e.retryPacer, attempt); werr != nil {
				break
			}
		}
	}

	return Extraction{Tier: TierNone, Attempts: attempts, Reason: lastErr.Error()}
}
