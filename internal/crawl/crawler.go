// Package crawl enriches admitted leads with the full text of their postings.
//
// Fetching is deliberately polite: leads are visited in small concurrent
// batches with a fixed pause between batches and a random delay before each
// fetch, so a run never hammers a single job board.
package crawl

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hiresignal/scout-cli/internal/model"
)

const (
	// DefaultBatchSize is how many leads are fetched concurrently.
	DefaultBatchSize = 3

	// DefaultBatchDelay is the pause between consecutive batches.
	DefaultBatchDelay = 2 * time.Second

	// authWallMaxChars: a page shorter than this that also carries a
	// sign-in marker is a login wall, not a posting.
	authWallMaxChars = 500
)

// authWallMarkers are sign-in wall phrases as LinkedIn and similar boards
// render them on gated listings.
var authWallMarkers = []string{"Sign In", "Join LinkedIn"}

// Config controls crawl batching. Zero values take the defaults.
type Config struct {
	BatchSize  int
	BatchDelay time.Duration
}

// Crawler visits lead links and fills in FullContent.
type Crawler struct {
	chain      *Chain
	batchSize  int
	batchDelay time.Duration

	jitter func() time.Duration // overridden in tests
}

// NewCrawler creates a Crawler over the given fetch chain.
func NewCrawler(chain *Chain, cfg Config) *Crawler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = DefaultBatchDelay
	}
	return &Crawler{
		chain:      chain,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		jitter:     defaultJitter,
	}
}

// defaultJitter spreads fetches inside a batch over [1s, 3s).
func defaultJitter() time.Duration {
	return time.Second + time.Duration(rand.Int64N(int64(2*time.Second)))
}

// EnrichAll visits every lead's link and populates FullContent in place.
// Leads are processed in fixed-size batches; fetches within a batch run
// concurrently and batches are separated by batchDelay. A failed fetch
// leaves its lead untouched and never affects the rest of the batch.
func (c *Crawler) EnrichAll(ctx context.Context, leads []*model.Lead) {
	if len(leads) == 0 {
		return
	}

	log := zap.L().With(zap.String("phase", "crawl"))
	log.Info("starting enrichment crawl", zap.Int("leads", len(leads)))

	for start := 0; start < len(leads); start += c.batchSize {
		if start > 0 && !sleepCtx(ctx, c.batchDelay) {
			log.Warn("enrichment crawl cancelled")
			break
		}

		end := start + c.batchSize
		if end > len(leads) {
			end = len(leads)
		}

		var g errgroup.Group
		for _, l := range leads[start:end] {
			g.Go(func() error {
				c.enrichOne(ctx, l)
				return nil
			})
		}
		_ = g.Wait()
	}

	enriched := 0
	for _, l := range leads {
		if l.CrawledAt != nil {
			enriched++
		}
	}
	log.Info("enrichment crawl complete",
		zap.Int("leads", len(leads)),
		zap.Int("enriched", enriched),
	)
}

// enrichOne fetches a single lead's link and applies the result. Fetch
// failures and auth walls leave the lead exactly as it was.
func (c *Crawler) enrichOne(ctx context.Context, l *model.Lead) {
	if !strings.Contains(l.Link, "http") {
		return
	}

	// Spread batch members out so fetches do not fire in lockstep.
	if !sleepCtx(ctx, c.jitter()) {
		return
	}

	log := zap.L().With(zap.String("phase", "crawl"))
	log.Debug("fetching posting",
		zap.String("company", l.Company),
		zap.String("title", l.Title),
	)

	result, err := c.chain.Scrape(ctx, l.Link)
	if err != nil {
		log.Warn("fetch failed", zap.String("url", l.Link), zap.Error(err))
		return
	}

	if isAuthWall(result.Page.Content) {
		log.Warn("auth wall hit, keeping snippet", zap.String("url", l.Link))
		return
	}

	l.FullContent = result.Page.Content
	now := time.Now().UTC()
	l.CrawledAt = &now
	l.AddNote("[Crawled]")
}

// isAuthWall reports whether fetched content is a login wall rather than
// a posting. Gated boards answer logged-out crawls with a short stub page.
func isAuthWall(content string) bool {
	if len(content) >= authWallMaxChars {
		return false
	}
	for _, marker := range authWallMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// sleepCtx waits for d, returning false if the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
