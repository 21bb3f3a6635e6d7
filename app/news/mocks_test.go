package news

import (
	"context"
	"errors"
	"sync"
)

type mockPageSource struct {
	mu    sync.Mutex
	texts map[string]string
	calls []string
}

func (m *mockPageSource) Extract(ctx context.Context, rawURL string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, rawURL)
	if text, ok := m.texts[rawURL]; ok {
		return text, nil
	}
	return "", errors.New("extracted content too short: 12 characters")
}

type apiResponse struct {
	record ArticleRecord
	err    error
}

// mockArticleAPI replays responses in order per URL; a URL with no scripted
// responses fails every time.
type mockArticleAPI struct {
	mu        sync.Mutex
	responses map[string][]apiResponse
	calls     map[string]int
	tokens    []string
}

func (m *mockArticleAPI) Article(ctx context.Context, pageURL, token string) (ArticleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.tokens = append(m.tokens, token)

	idx := m.calls[pageURL]
	m.calls[pageURL]++

	scripted := m.responses[pageURL]
	if idx >= len(scripted) {
		return ArticleRecord{}, ErrEmptyObjects
	}
	return scripted[idx].record, scripted[idx].err
}

type searchResponse struct {
	items []SearchItem
	err   error
}

type mockSearchProvider struct {
	mu        sync.Mutex
	responses []searchResponse
	requests  []SearchRequest
	keyless   bool
}

func (m *mockSearchProvider) Name() string { return "mock" }

func (m *mockSearchProvider) RequiresCredential() bool { return !m.keyless }

func (m *mockSearchProvider) Search(ctx context.Context, req SearchRequest) ([]SearchItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := len(m.requests)
	m.requests = append(m.requests, req)
	if idx >= len(m.responses) {
		return nil, errors.New("unexpected search call")
	}
	return m.responses[idx].items, m.responses[idx].err
}

func newTestPool(t interface{ Fatal(...any) }) *CredentialPool {
	pool, err := NewCredentialPool(map[Provider][]string{
		ProviderSearch:     {"s1", "s2", "s3"},
		ProviderExtraction: {"d1", "d2"},
	}, ProviderSearch, ProviderExtraction)
	if err != nil {
		t.Fatal(err)
	}
	return pool
}
