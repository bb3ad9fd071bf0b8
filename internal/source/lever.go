package source

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/model"
)

const leverBaseURL = "https://api.lever.co"

// LeverSite identifies one company's Lever postings site.
type LeverSite struct {
	Company string
	Site    string // site token in the API path
}

// LeverSource pulls postings from the public Lever postings API.
type LeverSource struct {
	fetcher *HTTPFetcher
	sites   []LeverSite
	baseURL string
}

// NewLeverSource creates a source over the given sites.
func NewLeverSource(fetcher *HTTPFetcher, sites []LeverSite) *LeverSource {
	return &LeverSource{fetcher: fetcher, sites: sites, baseURL: leverBaseURL}
}

func (s *LeverSource) Name() string { return "lever" }

type leverPosting struct {
	Text             string          `json:"text"`
	HostedURL        string          `json:"hostedUrl"`
	ApplyURL         string          `json:"applyUrl"`
	DescriptionPlain string          `json:"descriptionPlain"`
	CreatedAt        int64           `json:"createdAt"` // ms since epoch
	Categories       leverCategories `json:"categories"`
}

type leverCategories struct {
	Commitment string `json:"commitment"`
	Location   string `json:"location"`
	Team       string `json:"team"`
}

// FetchLeads queries every configured site, skipping sites that fail.
func (s *LeverSource) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	var leads []model.Lead
	for _, site := range s.sites {
		siteLeads, err := s.fetchSite(ctx, site)
		if err != nil {
			log.Warn("site fetch failed", zap.String("site", site.Site), zap.Error(err))
			continue
		}
		log.Debug("site fetched", zap.String("site", site.Site), zap.Int("postings", len(siteLeads)))
		leads = append(leads, siteLeads...)
	}
	return leads, nil
}

func (s *LeverSource) fetchSite(ctx context.Context, site LeverSite) ([]model.Lead, error) {
	u := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.baseURL, site.Site)

	var postings []leverPosting
	if err := s.fetcher.GetJSON(ctx, u, &postings); err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(postings))
	for _, p := range postings {
		if p.Text == "" || p.HostedURL == "" {
			continue
		}
		lead := newLead(s.Name(), site.Company, p.Text, p.HostedURL)
		lead.ApplyLink = p.ApplyURL
		lead.Location = p.Categories.Location
		lead.EmploymentType = p.Categories.Commitment
		lead.Snippet = truncateSnippet(p.DescriptionPlain, snippetMaxChars)
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt).UTC()
			lead.PostedAt = &t
		}
		leads = append(leads, lead)
	}
	return leads, nil
}
