package news

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

const DefaultMinContentLength = 50

var reWhitespace = regexp.MustCompile(`\s+`)

const blockSelector = "p, div, br, li, td, tr, blockquote, pre, h1, h2, h3, h4, h5, h6"

// ContentExtractor turns a raw HTML page into the article's plain text.
type ContentExtractor struct {
	minLength int
}

func NewContentExtractor(minLength int) *ContentExtractor {
	if minLength <= 0 {
		minLength = DefaultMinContentLength
	}
	return &ContentExtractor{minLength: minLength}
}

func (e *ContentExtractor) Run(data []byte, pageURL *url.URL) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	text, err := htmlToText(article.Content)
	if err != nil {
		return "", fmt.Errorf("failed to convert content to text: %w", err)
	}

	if len([]rune(text)) < e.minLength {
		return "", fmt.Errorf("extracted content too short: %d characters", len([]rune(text)))
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(text))

	return text, nil
}

func htmlToText(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})

	return normalizeText(doc.Text()), nil
}

func normalizeText(text string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
}
