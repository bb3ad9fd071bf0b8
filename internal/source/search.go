package source

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/model"
	"github.com/hiresignal/scout-cli/pkg/jina"
)

// QueryExpander proposes extra search queries from role keywords. The
// LLM diversifier satisfies this; a nil expander means stock queries
// only.
type QueryExpander interface {
	Diversify(ctx context.Context, keywords []string) []string
}

// SearchConfig controls the web-search source.
type SearchConfig struct {
	Queries  []string // stock queries run every time
	Keywords []string // seed keywords for query diversification
}

// SearchSource finds postings and hiring posts through Jina web search.
type SearchSource struct {
	client   jina.Client
	expander QueryExpander
	cfg      SearchConfig
}

// NewSearchSource creates a source over the given queries. expander may
// be nil.
func NewSearchSource(client jina.Client, expander QueryExpander, cfg SearchConfig) *SearchSource {
	return &SearchSource{client: client, expander: expander, cfg: cfg}
}

func (s *SearchSource) Name() string { return "search" }

// FetchLeads runs the stock queries plus any diversified extras. A
// query that fails is logged and skipped.
func (s *SearchSource) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	queries := append([]string(nil), s.cfg.Queries...)
	if s.expander != nil && len(s.cfg.Keywords) > 0 {
		extras := s.expander.Diversify(ctx, s.cfg.Keywords)
		log.Debug("diversified queries", zap.Int("extras", len(extras)))
		queries = append(queries, extras...)
	}

	var leads []model.Lead
	for _, q := range queries {
		resp, err := s.client.Search(ctx, q)
		if err != nil {
			log.Warn("search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		log.Debug("search done", zap.String("query", q), zap.Int("results", len(resp.Data)))
		for _, r := range resp.Data {
			if lead, ok := leadFromSearchResult(r); ok {
				leads = append(leads, lead)
			}
		}
	}
	return leads, nil
}

// leadFromSearchResult maps one search hit to a lead. LinkedIn URLs are
// tagged post vs job so downstream reporting can tell them apart.
func leadFromSearchResult(r jina.SearchResult) (model.Lead, bool) {
	title := strings.TrimSpace(r.Title)
	link := strings.TrimSpace(r.URL)
	if title == "" || link == "" {
		return model.Lead{}, false
	}

	sourceName := "search_web"
	if strings.Contains(link, "linkedin.com") {
		if strings.Contains(link, "/posts/") {
			sourceName = "search_linkedin_post"
		} else {
			sourceName = "search_linkedin_job"
		}
	}

	company := companyFromTitle(title)
	if company == "" {
		company = "Unknown"
	}

	lead := newLead(sourceName, company, title, link)
	snippet := r.Description
	if snippet == "" {
		snippet = r.Content
	}
	lead.Snippet = truncateSnippet(snippet, snippetMaxChars)
	lead.Location = "United States"
	return lead, true
}
