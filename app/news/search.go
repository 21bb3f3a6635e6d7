package news

import (
	"context"
	"strings"
)

// DefaultPublisherDomains restricts searches to the business press.
var DefaultPublisherDomains = []string{
	"economictimes.indiatimes.com",
	"business-standard.com",
	"financialexpress.com",
}

type SearchRequest struct {
	Query     string
	DateRange string // provider "tbs" hint, e.g. qdr:d
	Language  string
	Region    string
	APIKey    string
}

// SearchItem is one provider result before filtering and extraction.
type SearchItem struct {
	Link   string
	Title  string
	Source string
	Date   string
}

type SearchProvider interface {
	Name() string
	RequiresCredential() bool
	Search(ctx context.Context, req SearchRequest) ([]SearchItem, error)
}

// BuildQuery ORs the allowed publisher domains in front of the keyword query.
func BuildQuery(domains []string, query string) string {
	parts := make([]string, 0, len(domains)+1)
	for i, domain := range domains {
		if i == 0 {
			parts = append(parts, "site:"+domain)
		} else {
			parts = append(parts, "OR site:"+domain)
		}
	}
	parts = append(parts, query)
	return strings.Join(parts, " ")
}
