package news

import (
	"errors"
	"fmt"
)

type Provider string

const (
	ProviderSearch     Provider = "search"
	ProviderExtraction Provider = "extraction"
)

var ErrNoCredentials = errors.New("no credentials configured")

// CredentialPool hands out interchangeable credentials in round-robin order.
// One pool belongs to one run; it is not safe for concurrent use.
type CredentialPool struct {
	credentials map[Provider][]string
	cursors     map[Provider]int
}

// NewCredentialPool copies the given lists and fails if any provider in
// required has no usable credential.
func NewCredentialPool(credentials map[Provider][]string, required ...Provider) (*CredentialPool, error) {
	pool := &CredentialPool{
		credentials: make(map[Provider][]string, len(credentials)),
		cursors:     make(map[Provider]int, len(credentials)),
	}

	for provider, list := range credentials {
		kept := make([]string, 0, len(list))
		for _, credential := range list {
			if credential != "" {
				kept = append(kept, credential)
			}
		}
		pool.credentials[provider] = kept
	}

	for _, provider := range required {
		if len(pool.credentials[provider]) == 0 {
			return nil, fmt.Errorf("%w for provider %s", ErrNoCredentials, provider)
		}
	}

	return pool, nil
}

// Next returns the next credential for provider and advances its cursor.
// Callers must not call Next for a provider with an empty pool.
func (p *CredentialPool) Next(provider Provider) string {
	list := p.credentials[provider]
	credential := list[p.cursors[provider]%len(list)]
	p.cursors[provider]++
	return credential
}

func (p *CredentialPool) Size(provider Provider) int {
	return len(p.credentials[provider])
}
