package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io"

// GreenhouseBoard identifies one company's Greenhouse job board.
type GreenhouseBoard struct {
	Company string // display name, e.g. "Acme"
	Board   string // board token in the API path
}

// GreenhouseSource pulls postings from the public Greenhouse boards API.
type GreenhouseSource struct {
	fetcher *HTTPFetcher
	boards  []GreenhouseBoard
	baseURL string
}

// NewGreenhouseSource creates a source over the given boards.
func NewGreenhouseSource(fetcher *HTTPFetcher, boards []GreenhouseBoard) *GreenhouseSource {
	return &GreenhouseSource{fetcher: fetcher, boards: boards, baseURL: greenhouseBaseURL}
}

func (s *GreenhouseSource) Name() string { return "greenhouse" }

type greenhouseJobList struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	Title       string             `json:"title"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Location    greenhouseLocation `json:"location"`
	Content     string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// FetchLeads queries every configured board. A board that fails is
// logged and skipped so the rest still contribute.
func (s *GreenhouseSource) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	var leads []model.Lead
	for _, b := range s.boards {
		boardLeads, err := s.fetchBoard(ctx, b)
		if err != nil {
			log.Warn("board fetch failed", zap.String("board", b.Board), zap.Error(err))
			continue
		}
		log.Debug("board fetched", zap.String("board", b.Board), zap.Int("jobs", len(boardLeads)))
		leads = append(leads, boardLeads...)
	}
	return leads, nil
}

func (s *GreenhouseSource) fetchBoard(ctx context.Context, b GreenhouseBoard) ([]model.Lead, error) {
	u := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", s.baseURL, b.Board)

	var list greenhouseJobList
	if err := s.fetcher.GetJSON(ctx, u, &list); err != nil {
		return nil, err
	}

	leads := make([]model.Lead, 0, len(list.Jobs))
	for _, j := range list.Jobs {
		if j.Title == "" || j.AbsoluteURL == "" {
			continue
		}
		lead := newLead(s.Name(), b.Company, j.Title, j.AbsoluteURL)
		lead.Location = j.Location.Name
		lead.Snippet = htmlToSnippet(j.Content, snippetMaxChars)
		lead.PostedAt = parseTime(j.UpdatedAt)
		leads = append(leads, lead)
	}
	return leads, nil
}
