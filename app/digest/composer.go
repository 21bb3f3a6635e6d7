package digest

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lysyi3m/regwatch/app/news"
)

const (
	Title         = "📢 Daily Regulatory News Summary"
	snippetLength = 300
)

type Envelope struct {
	From    string
	To      []string
	Subject string
}

type section struct {
	Heading  string
	Articles []article
}

type article struct {
	Headline    string
	SiteName    string
	Author      string
	PublishedAt string
	URL         string
	Snippet     string
}

type digestData struct {
	Title    string
	Window   string
	Date     string
	Total    int
	Sections []section
}

var htmlTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h2>{{.Title}}</h2>
{{- if not .Sections}}
<p>No articles found for {{.Window}} on {{.Date}}.</p>
{{- else}}
{{- range .Sections}}
<h3>🔎 {{.Heading}}</h3>
<ul>
{{- range .Articles}}
<li>
<b>{{.Headline}}</b><br>
<i><a href="{{.URL}}">{{.SiteName}}</a></i><br>
{{- if or .Author .PublishedAt}}
<small>{{if .Author}}{{.Author}}{{end}}{{if and .Author .PublishedAt}} · {{end}}{{if .PublishedAt}}{{.PublishedAt}}{{end}}</small><br>
{{- end}}
<p>{{.Snippet}}...</p>
</li>
{{- end}}
</ul>
<hr>
{{- end}}
{{- end}}
</body>
</html>
`))

// Composer renders a run result into a mail message in the operating location.
type Composer struct {
	location *time.Location
}

func NewComposer(location *time.Location) *Composer {
	if location == nil {
		location = time.UTC
	}
	return &Composer{location: location}
}

func (c *Composer) Compose(env Envelope, mode news.TimeFilterMode, result *news.RunResult, now time.Time) (*Message, error) {
	local := now.In(c.location)
	data := digestData{
		Title:    Title,
		Window:   mode.String(),
		Date:     local.Format("2006-01-02"),
		Sections: sections(result),
	}
	if result != nil {
		data.Total = result.Total()
	}

	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render digest: %w", err)
	}

	subject := env.Subject
	if subject == "" {
		subject = Title
	}

	return &Message{
		From:    env.From,
		To:      env.To,
		Subject: subject + " - " + data.Date,
		Date:    local,
		HTML:    html.String(),
		Text:    renderText(data),
	}, nil
}

// sections skips pairs without articles and keeps pair and article order.
func sections(result *news.RunResult) []section {
	if result == nil {
		return nil
	}

	var out []section
	for _, key := range result.Keys() {
		records, _ := result.Get(key)
		if len(records) == 0 {
			continue
		}

		s := section{Heading: Heading(key)}
		for _, record := range records {
			s.Articles = append(s.Articles, article{
				Headline:    fallback(record.Headline, "No title"),
				SiteName:    fallback(record.SiteName, "Unknown Source"),
				Author:      record.Author,
				PublishedAt: record.PublishedAt,
				URL:         fallback(record.URL, "#"),
				Snippet:     Snippet(record.Content, snippetLength),
			})
		}
		out = append(out, s)
	}
	return out
}

// Heading turns a pair key "first_second" into "First & Second".
// Acronyms keep their capitals.
func Heading(pairKey string) string {
	caser := cases.Title(language.English, cases.NoLower)
	first, second, ok := strings.Cut(pairKey, "_")
	if !ok {
		return caser.String(pairKey)
	}
	return caser.String(first) + " & " + caser.String(second)
}

// Snippet returns the first n characters of text.
func Snippet(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

func renderText(data digestData) string {
	var sb strings.Builder

	sb.WriteString(data.Title + "\n")
	sb.WriteString(data.Date + "\n\n")

	if len(data.Sections) == 0 {
		sb.WriteString(fmt.Sprintf("No articles found for %s on %s.\n", data.Window, data.Date))
		return sb.String()
	}

	for _, s := range data.Sections {
		sb.WriteString("== " + s.Heading + " ==\n\n")
		for _, a := range s.Articles {
			sb.WriteString(a.Headline + "\n")
			sb.WriteString(a.SiteName + " - " + a.URL + "\n")
			if a.Author != "" {
				sb.WriteString("By " + a.Author + "\n")
			}
			if a.PublishedAt != "" {
				sb.WriteString("Published " + a.PublishedAt + "\n")
			}
			sb.WriteString(a.Snippet + "...\n\n")
		}
	}

	sb.WriteString(fmt.Sprintf("%d article(s)\n", data.Total))
	return sb.String()
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
