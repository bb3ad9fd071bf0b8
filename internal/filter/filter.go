// Package filter applies the cheap keyword gate that decides whether a
// lead is worth crawl and LLM spend.
package filter

import (
	"math"
	"regexp"
	"strings"

	"github.com/hiresignal/scout-cli/internal/model"
)

// DefaultNoMatchScore keeps keyword-free leads alive for enrichment.
// Snippets are often too short to carry stack keywords, so the deep
// scorer gets to decide. Configure 0 to hard-drop instead.
const DefaultNoMatchScore = 0.1

// Config holds the keyword lists and the no-match admission policy.
type Config struct {
	IncludeKeywords []string `mapstructure:"include_keywords"`
	ExcludeKeywords []string `mapstructure:"exclude_keywords"`
	NoMatchScore    float64  `mapstructure:"no_match_score"`
}

// DefaultIncludeKeywords is the stock stack-keyword list.
var DefaultIncludeKeywords = []string{
	"python", "golang", "java", "typescript", "javascript", "react", "node",
	"aws", "gcp", "azure", "kubernetes", "k8s", "docker", "terraform",
	"postgres", "postgresql", "mysql", "redis", "kafka", "spark", "rust",
}

// DefaultExcludeKeywords is the stock hard-exclusion list.
var DefaultExcludeKeywords = []string{
	"recruiter", "recruiting", "staffing", "headhunter", "clearance",
	"unpaid", "internship",
}

// nonLatinRe matches CJK and Cyrillic code points. Titles carrying them
// are spam for a US-market search.
var nonLatinRe = regexp.MustCompile(`[\x{4E00}-\x{9FFF}\x{0400}-\x{04FF}]`)

type keywordPattern struct {
	term string
	re   *regexp.Regexp
}

// Filter scores leads against the keyword lists. Patterns are compiled
// once at construction.
type Filter struct {
	include      []keywordPattern
	exclude      []keywordPattern
	noMatchScore float64
}

// New builds a Filter from the configured lists. Empty lists fall back
// to the package defaults; NoMatchScore is taken as configured.
func New(cfg Config) *Filter {
	include := cfg.IncludeKeywords
	if len(include) == 0 {
		include = DefaultIncludeKeywords
	}
	exclude := cfg.ExcludeKeywords
	if len(exclude) == 0 {
		exclude = DefaultExcludeKeywords
	}

	f := &Filter{noMatchScore: cfg.NoMatchScore}
	for _, term := range include {
		f.include = append(f.include, keywordPattern{term: term, re: wordPattern(term)})
	}
	for _, term := range exclude {
		f.exclude = append(f.exclude, keywordPattern{term: term, re: wordPattern(term)})
	}
	return f
}

func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
}

// Process scores the lead in place and tags its category.
// Rules:
//   - any exclusion keyword matching as a whole word forces 0.0 and stops
//   - CJK or Cyrillic characters in the title force 0.0 and stop
//   - n matched inclusion keywords score min(1.0, 0.5 + 0.1*n)
//   - zero matches score the configured no-match value and annotate the
//     lead for deep inspection
func (f *Filter) Process(l *model.Lead) {
	corpus := strings.ToLower(l.Title + " " + l.Snippet + " " + strings.Join(l.Keywords, " "))

	for _, kw := range f.exclude {
		if kw.re.MatchString(corpus) {
			l.Score = 0.0
			l.AddNote("Excluded by keyword: " + kw.term)
			return
		}
	}

	if nonLatinRe.MatchString(l.Title) {
		l.Score = 0.0
		l.AddNote("Excluded: Non-English characters detected")
		return
	}

	var hits []string
	for _, kw := range f.include {
		if kw.re.MatchString(corpus) {
			hits = append(hits, kw.term)
		}
	}
	l.MatchedKeywords = hits

	if len(hits) > 0 {
		l.Score = math.Min(0.5+0.1*float64(len(hits)), 1.0)
	} else {
		l.Score = f.noMatchScore
		l.AddNote("Snippet vague, need deep crawl to confirm.")
	}

	l.Category = Categorize(l.Title)
}

// Categorize buckets a title into a role family by ordered substring
// tests. The first matching rule wins.
func Categorize(title string) model.Category {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "data") || strings.Contains(t, "analyst"):
		return model.CategoryData
	case strings.Contains(t, "backend") || strings.Contains(t, "back-end"):
		return model.CategoryBackend
	case strings.Contains(t, "frontend") || strings.Contains(t, "front-end") || strings.Contains(t, "ui"):
		return model.CategoryFrontend
	case strings.Contains(t, "full stack") || strings.Contains(t, "fullstack"):
		return model.CategoryFullstack
	case strings.Contains(t, "machine learning") || strings.Contains(t, "ml") || strings.Contains(t, "ai"):
		return model.CategoryMLAI
	case strings.Contains(t, "devops") || strings.Contains(t, "sre") || strings.Contains(t, "cloud"):
		return model.CategoryDevOpsSRE
	case strings.Contains(t, "security"):
		return model.CategorySecurity
	default:
		return model.CategoryOtherTech
	}
}
