package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hiresignal/scout-cli/internal/model"
)

// fetchLeads pulls raw leads from every enabled source concurrently.
// A failing source is logged and contributes nothing; it never aborts
// the run.
func (p *Pipeline) fetchLeads(ctx context.Context, opts RunOptions) []model.Lead {
	var mu sync.Mutex
	var all []model.Lead

	g, gCtx := errgroup.WithContext(ctx)
	for _, src := range p.sources {
		if opts.Source != "" && src.Name() != opts.Source {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			leads, err := src.FetchLeads(gCtx)
			if err != nil {
				zap.L().Warn("pipeline: source fetch failed",
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				return nil
			}
			zap.L().Info("pipeline: source fetched",
				zap.String("source", src.Name()),
				zap.Int("leads", len(leads)),
				zap.Duration("elapsed", time.Since(start)),
			)
			mu.Lock()
			all = append(all, leads...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return all
}
