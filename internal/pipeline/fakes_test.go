package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/hiresignal/scout-cli/internal/config"
	"github.com/hiresignal/scout-cli/internal/filter"
	"github.com/hiresignal/scout-cli/internal/geo"
	"github.com/hiresignal/scout-cli/internal/model"
	"github.com/hiresignal/scout-cli/internal/store"
)

type fakeSource struct {
	name  string
	leads []model.Lead
	err   error
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.leads, nil
}

// fakeStore is an in-memory store.Store with injectable failures.
type fakeStore struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	appended []model.Lead
	recorded []string
	created  []*model.Run
	finished []model.Run

	loadErr   error
	createErr error
	appendErr error
	recordErr error
	finishErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: map[string]struct{}{}}
}

func (s *fakeStore) LoadSeenIDs(ctx context.Context) (map[string]struct{}, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string]struct{}, len(s.seen))
	for id := range s.seen {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *fakeStore) RecordSeenIDs(ctx context.Context, ids []string) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, ids...)
	for _, id := range ids {
		s.seen[id] = struct{}{}
	}
	return nil
}

func (s *fakeStore) AppendLeads(ctx context.Context, leads []model.Lead) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, leads...)
	return nil
}

func (s *fakeStore) ListLeads(ctx context.Context, f store.LeadFilter) ([]model.Lead, error) {
	return s.appended, nil
}

func (s *fakeStore) CreateRun(ctx context.Context) (*model.Run, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	r := &model.Run{
		ID:        "run-1",
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	s.created = append(s.created, r)
	return r, nil
}

func (s *fakeStore) FinishRun(ctx context.Context, run *model.Run) error {
	if s.finishErr != nil {
		return s.finishErr
	}
	s.finished = append(s.finished, *run)
	return nil
}

func (s *fakeStore) GetLatestRun(ctx context.Context) (*model.Run, error) { return nil, nil }

func (s *fakeStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) { return nil, nil }

func (s *fakeStore) GetCachedResponse(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (s *fakeStore) SetCachedResponse(ctx context.Context, key, text string) error { return nil }

func (s *fakeStore) DeleteExpiredResponses(ctx context.Context) (int, error) { return 0, nil }

func (s *fakeStore) Migrate(ctx context.Context) error { return nil }
func (s *fakeStore) Ping(ctx context.Context) error    { return nil }
func (s *fakeStore) Close() error                      { return nil }

type fakeSink struct {
	notified []model.Lead
	digests  [][]model.Lead
	err      error
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) NotifyLead(ctx context.Context, lead model.Lead) error {
	f.notified = append(f.notified, lead)
	return f.err
}

func (f *fakeSink) SendDigest(ctx context.Context, leads []model.Lead) error {
	f.digests = append(f.digests, leads)
	return f.err
}

// fakeEnricher fills FullContent from a link-keyed map, standing in for
// the crawler.
type fakeEnricher struct {
	content map[string]string
	visited []string
}

func (f *fakeEnricher) EnrichAll(ctx context.Context, leads []*model.Lead) {
	for _, l := range leads {
		f.visited = append(f.visited, l.Link)
		if c, ok := f.content[l.Link]; ok {
			l.FullContent = c
			now := time.Now().UTC()
			l.CrawledAt = &now
		}
	}
}

type fakeGen struct {
	response string
	err      error
	calls    int
}

func (f *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fixedCalls int64

func (f fixedCalls) CallsUsed() int64 { return int64(f) }

func testConfig() *config.Config {
	return &config.Config{
		Thresholds: config.ThresholdsConfig{
			Precrawl:   0.1,
			Final:      0.6,
			Alert:      0.85,
			DigestSize: 20,
		},
	}
}

func testNormalizer() *geo.Normalizer {
	return geo.NewNormalizer(geo.Config{})
}

func testFilter() *filter.Filter {
	return filter.New(filter.Config{NoMatchScore: 0.1})
}

func rawLead(company, title, link, location, snippet string) model.Lead {
	return model.Lead{
		Source:    "test",
		Company:   company,
		Title:     title,
		Link:      link,
		Location:  location,
		Snippet:   snippet,
		Country:   "USA",
		Status:    model.LeadStatusNew,
		CreatedAt: time.Now().UTC(),
	}
}
