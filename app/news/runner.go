package news

import (
	"context"
	"log/slog"
	"time"
)

// Runner drives the fetcher once per keyword pair.
type Runner struct {
	fetcher *Fetcher
	pacer   Pacer
}

func NewRunner(fetcher *Fetcher, pacer Pacer) *Runner {
	return &Runner{fetcher: fetcher, pacer: pacer}
}

// Run always returns a result with one entry per pair, empty or not.
func (r *Runner) Run(ctx context.Context, keywords []string, mode TimeFilterMode) *RunResult {
	result := NewRunResult()
	seen := make(map[string]bool)
	pairs := Pairs(keywords)

	if len(keywords)%2 == 1 {
		slog.Warn("Dropping unpaired trailing keyword", "keyword", keywords[len(keywords)-1])
	}

	for i, pair := range pairs {
		start := time.Now()
		fetched := r.fetcher.Fetch(ctx, pair.Query(), mode, seen)
		result.Set(pair.Key(), fetched.Articles)

		attrs := []any{
			"pair", pair.Key(),
			"articles", len(fetched.Articles),
			"attempts", fetched.Attempts,
			"duration", time.Since(start),
		}
		for reason, count := range fetched.Skipped {
			attrs = append(attrs, string(reason), count)
		}
		if fetched.LastErr != nil {
			attrs = append(attrs, "last_error", fetched.LastErr)
		}
		slog.Info("Keyword pair fetched", attrs...)

		if i < len(pairs)-1 {
			if err := Wait(ctx, r.pacer, i+1); err != nil {
				slog.Debug("Inter-pair delay interrupted", "error", err)
			}
		}
	}

	return result
}
