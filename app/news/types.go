package news

import (
	"fmt"
)

// ArticleRecord is one retrieved article. Content is never empty.
type ArticleRecord struct {
	Headline    string `json:"headline"`
	Author      string `json:"author,omitempty"`
	SiteName    string `json:"site_name"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at,omitempty"` // local time, only when requested
}

type KeywordPair struct {
	First  string
	Second string
}

func (p KeywordPair) Key() string {
	return p.First + "_" + p.Second
}

func (p KeywordPair) Query() string {
	return fmt.Sprintf("%q OR %q", p.First, p.Second)
}

// Pairs splits keywords into consecutive non-overlapping pairs.
// A trailing keyword without a partner is dropped.
func Pairs(keywords []string) []KeywordPair {
	pairs := make([]KeywordPair, 0, len(keywords)/2)
	for i := 0; i+1 < len(keywords); i += 2 {
		pairs = append(pairs, KeywordPair{First: keywords[i], Second: keywords[i+1]})
	}
	return pairs
}

// RunResult maps pair keys to articles, preserving pair insertion order.
type RunResult struct {
	keys     []string
	articles map[string][]ArticleRecord
}

func NewRunResult() *RunResult {
	return &RunResult{articles: make(map[string][]ArticleRecord)}
}

// Set stores articles under key. Nil slices are stored as empty.
func (r *RunResult) Set(key string, articles []ArticleRecord) {
	if _, ok := r.articles[key]; !ok {
		r.keys = append(r.keys, key)
	}
	if articles == nil {
		articles = []ArticleRecord{}
	}
	r.articles[key] = articles
}

func (r *RunResult) Get(key string) ([]ArticleRecord, bool) {
	articles, ok := r.articles[key]
	return articles, ok
}

func (r *RunResult) Keys() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

func (r *RunResult) Len() int {
	return len(r.keys)
}

// Total returns the number of articles across all pairs.
func (r *RunResult) Total() int {
	total := 0
	for _, articles := range r.articles {
		total += len(articles)
	}
	return total
}

func (r *RunResult) Empty() bool {
	return r.Total() == 0
}
