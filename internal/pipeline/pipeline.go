// Package pipeline orchestrates one intake run: fetch, admit, enrich,
// score, partition, persist, notify.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/config"
	"github.com/hiresignal/scout-cli/internal/filter"
	"github.com/hiresignal/scout-cli/internal/geo"
	"github.com/hiresignal/scout-cli/internal/llm"
	"github.com/hiresignal/scout-cli/internal/model"
	"github.com/hiresignal/scout-cli/internal/notify"
	"github.com/hiresignal/scout-cli/internal/source"
	"github.com/hiresignal/scout-cli/internal/store"
)

// CallCounter reports how many provider calls a run consumed.
// *llm.Manager satisfies it.
type CallCounter interface {
	CallsUsed() int64
}

// Enricher fills lead FullContent in place. *crawl.Crawler satisfies it.
type Enricher interface {
	EnrichAll(ctx context.Context, leads []*model.Lead)
}

// RunOptions modify a single run.
type RunOptions struct {
	// DryRun skips all store writes and notifications.
	DryRun bool
	// Source restricts fetching to the named source.
	Source string
	// Limit caps how many fetched leads enter the run; zero means all.
	Limit int
}

// Pipeline wires the intake stages over injected dependencies.
type Pipeline struct {
	cfg     *config.Config
	store   store.Store
	sources []source.Source
	geo     *geo.Normalizer
	filter  *filter.Filter
	crawler Enricher
	scorer  *llm.Scorer
	calls   CallCounter
	sinks   notify.Notifier
}

// New creates a Pipeline with all dependencies. scorer and calls may be
// nil when no LLM provider is configured; deep scoring is skipped then.
func New(
	cfg *config.Config,
	st store.Store,
	sources []source.Source,
	normalizer *geo.Normalizer,
	f *filter.Filter,
	crawler Enricher,
	scorer *llm.Scorer,
	calls CallCounter,
	sinks notify.Notifier,
) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   st,
		sources: sources,
		geo:     normalizer,
		filter:  f,
		crawler: crawler,
		scorer:  scorer,
		calls:   calls,
		sinks:   sinks,
	}
}

// Run executes one full intake run. Only store failures abort it;
// source, crawl, LLM, and notification failures degrade the run but let
// it finish.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*model.RunStats, error) {
	log := zap.L()
	start := time.Now()

	run, err := p.createRun(ctx, opts)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log.Info("pipeline: run started",
		zap.String("run_id", run.ID),
		zap.Bool("dry_run", opts.DryRun),
	)

	seen, err := p.store.LoadSeenIDs(ctx)
	if err != nil {
		err = eris.Wrap(err, "pipeline: load seen ids")
		p.failRun(ctx, run, err, opts)
		return nil, err
	}

	stats := &model.RunStats{}

	leads := p.fetchLeads(ctx, opts)
	if opts.Limit > 0 && len(leads) > opts.Limit {
		log.Info("pipeline: limiting run",
			zap.Int("fetched", len(leads)),
			zap.Int("limit", opts.Limit),
		)
		leads = leads[:opts.Limit]
	}
	stats.Fetched = len(leads)

	candidates := p.admit(leads, seen, stats)
	log.Info("pipeline: admission complete",
		zap.Int("fetched", stats.Fetched),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("geo_dropped", stats.GeoDropped),
		zap.Int("prefiltered", stats.Prefiltered),
		zap.Int("candidates", len(candidates)),
	)

	p.crawler.EnrichAll(ctx, candidates)
	for _, l := range candidates {
		if l.CrawledAt != nil {
			stats.Crawled++
		}
	}

	survivors := p.scoreAndGate(ctx, candidates, stats)
	log.Info("pipeline: scoring complete",
		zap.Int("crawled", stats.Crawled),
		zap.Int("scored", stats.Scored),
		zap.Int("admitted", stats.Admitted),
	)

	p.partition(ctx, survivors, stats, opts)

	if !opts.DryRun {
		if err := p.persist(ctx, survivors); err != nil {
			p.failRun(ctx, run, err, opts)
			return stats, err
		}
	}

	if p.calls != nil {
		stats.LLMCalls = int(p.calls.CallsUsed())
	}

	run.Stats = *stats
	run.Status = model.RunStatusComplete
	if !opts.DryRun {
		if err := p.store.FinishRun(ctx, run); err != nil {
			return stats, eris.Wrap(err, "pipeline: finish run")
		}
	}

	log.Info("pipeline: run complete",
		zap.String("run_id", run.ID),
		zap.Int("fetched", stats.Fetched),
		zap.Int("dropped", stats.Dropped()),
		zap.Int("admitted", stats.Admitted),
		zap.Int("alerted", stats.Alerted),
		zap.Int("digested", stats.Digested),
		zap.Int("llm_calls", stats.LLMCalls),
		zap.Duration("elapsed", time.Since(start)),
	)
	return stats, nil
}

// createRun opens the run record. Dry runs never touch the store, so
// they get a synthetic record instead.
func (p *Pipeline) createRun(ctx context.Context, opts RunOptions) (*model.Run, error) {
	if opts.DryRun {
		return &model.Run{
			ID:        uuid.NewString(),
			Status:    model.RunStatusRunning,
			StartedAt: time.Now().UTC(),
		}, nil
	}
	return p.store.CreateRun(ctx)
}

// failRun marks the run failed, best effort.
func (p *Pipeline) failRun(ctx context.Context, run *model.Run, cause error, opts RunOptions) {
	if opts.DryRun {
		return
	}
	run.Status = model.RunStatusFailed
	run.Error = cause.Error()
	if err := p.store.FinishRun(ctx, run); err != nil {
		zap.L().Warn("pipeline: failed to mark run failed", zap.Error(err))
	}
}

// persist appends the survivors and their identities. Both tables are
// append-only; identities recorded here suppress the same postings in
// future runs.
func (p *Pipeline) persist(ctx context.Context, survivors []*model.Lead) error {
	if len(survivors) == 0 {
		return nil
	}

	leads := make([]model.Lead, len(survivors))
	ids := make([]string, len(survivors))
	for i, l := range survivors {
		leads[i] = *l
		ids[i] = l.ID
	}

	if err := p.store.AppendLeads(ctx, leads); err != nil {
		return eris.Wrap(err, "pipeline: append leads")
	}
	if err := p.store.RecordSeenIDs(ctx, ids); err != nil {
		return eris.Wrap(err, "pipeline: record seen ids")
	}
	return nil
}
