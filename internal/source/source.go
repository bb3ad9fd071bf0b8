// Package source implements the lead sources feeding the intake pipeline.
//
// Each source speaks one upstream: the Greenhouse and Lever board APIs,
// generic XML job feeds, a partner CSV drop on FTP, and Jina web search.
// Sources only gather and map fields; dedupe, geo screening, and scoring
// happen in the pipeline.
package source

import (
	"context"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/hiresignal/scout-cli/internal/model"
)

// snippetMaxChars caps stored snippets; full text comes from enrichment.
const snippetMaxChars = 500

// Source produces raw leads for a run.
type Source interface {
	Name() string
	FetchLeads(ctx context.Context) ([]model.Lead, error)
}

// newLead builds a Lead with the defaults every source shares.
func newLead(source, company, title, link string) model.Lead {
	return model.Lead{
		Source:    source,
		Company:   company,
		Title:     title,
		Link:      link,
		Country:   "USA",
		Status:    model.LeadStatusNew,
		CreatedAt: time.Now().UTC(),
	}
}

var (
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// htmlToSnippet turns an HTML description into a short plaintext snippet.
// Unescapes twice around the tag strip because Greenhouse ships posting
// bodies as HTML-escaped HTML.
func htmlToSnippet(s string, max int) string {
	s = html.UnescapeString(s)
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return truncateSnippet(s, max)
}

// truncateSnippet trims and caps a snippet without splitting a rune.
func truncateSnippet(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// companyFromTitle guesses the company from a result title. LinkedIn
// titles read "Software Engineer at Google | LinkedIn" or
// "Google - Software Engineer".
func companyFromTitle(title string) string {
	if strings.Contains(title, " at ") {
		parts := strings.Split(title, " at ")
		tail := parts[len(parts)-1]
		return strings.TrimSpace(strings.Split(tail, "|")[0])
	}
	if strings.Contains(title, " - ") {
		return strings.TrimSpace(strings.Split(title, " - ")[0])
	}
	return ""
}

// parseTime tries the timestamp layouts job APIs and feeds actually send.
// Returns nil when nothing matches; posting dates are best-effort.
func parseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	layouts := []string{time.RFC3339, time.RFC1123Z, time.RFC1123, "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}
