package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/hiresignal/scout-cli/internal/model"
)

// FeedConfig points at one XML job feed.
type FeedConfig struct {
	Name    string // label recorded as the lead source, e.g. "weworkremotely"
	URL     string
	Company string // fallback when the feed carries no company element
}

// FeedSource ingests RSS-style XML job feeds.
type FeedSource struct {
	fetcher *HTTPFetcher
	feeds   []FeedConfig
}

// NewFeedSource creates a source over the given feeds.
func NewFeedSource(fetcher *HTTPFetcher, feeds []FeedConfig) *FeedSource {
	return &FeedSource{fetcher: fetcher, feeds: feeds}
}

func (s *FeedSource) Name() string { return "feed" }

// feedItem is the union of the element shapes job feeds use: RSS <item>
// and flat <job> elements.
type feedItem struct {
	Title       string `xml:"title"`
	Company     string `xml:"company"`
	Link        string `xml:"link"`
	URL         string `xml:"url"`
	Location    string `xml:"location"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Date        string `xml:"date"`
}

// FetchLeads downloads and parses every configured feed, skipping feeds
// that fail.
func (s *FeedSource) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	log := zap.L().With(zap.String("source", s.Name()))

	var leads []model.Lead
	for _, cfg := range s.feeds {
		feedLeads, err := s.fetchFeed(ctx, cfg)
		if err != nil {
			log.Warn("feed fetch failed", zap.String("feed", cfg.Name), zap.Error(err))
			continue
		}
		log.Debug("feed fetched", zap.String("feed", cfg.Name), zap.Int("items", len(feedLeads)))
		leads = append(leads, feedLeads...)
	}
	return leads, nil
}

func (s *FeedSource) fetchFeed(ctx context.Context, cfg FeedConfig) ([]model.Lead, error) {
	body, err := s.fetcher.Get(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	return parseFeed(cfg, bytes.NewReader(body))
}

// parseFeed decodes item and job elements, tolerating non-UTF-8 feeds.
func parseFeed(cfg FeedConfig, r io.Reader) ([]model.Lead, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "feed: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var leads []model.Lead
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return leads, eris.Wrap(err, "feed: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "item" && se.Name.Local != "job" {
			continue
		}

		var item feedItem
		if err := decoder.DecodeElement(&item, &se); err != nil {
			return leads, eris.Wrap(err, "feed: decode element")
		}
		if lead, ok := leadFromFeedItem(cfg, item); ok {
			leads = append(leads, lead)
		}
	}
	return leads, nil
}

func leadFromFeedItem(cfg FeedConfig, item feedItem) (model.Lead, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if link == "" {
		link = strings.TrimSpace(item.URL)
	}
	if title == "" || link == "" {
		return model.Lead{}, false
	}

	company := strings.TrimSpace(item.Company)
	if company == "" {
		company = cfg.Company
	}
	if company == "" {
		company = companyFromTitle(title)
	}
	if company == "" {
		company = "Unknown"
	}

	sourceName := cfg.Name
	if sourceName == "" {
		sourceName = "feed"
	}

	lead := newLead(sourceName, company, title, link)
	lead.Location = strings.TrimSpace(item.Location)
	lead.Snippet = htmlToSnippet(item.Description, snippetMaxChars)
	date := item.PubDate
	if date == "" {
		date = item.Date
	}
	lead.PostedAt = parseTime(date)
	return lead, true
}
