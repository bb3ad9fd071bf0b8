package pipeline

import (
	"context"
	"sort"

	"github.com/hiresignal/scout-cli/internal/model"
)

// scoreAndGate runs deep scoring over the enriched candidates, then
// re-applies the final admission threshold to the possibly-updated
// score. Leads without full content, and leads the provider refused to
// judge, keep their cheap-filter score; the final gate still applies.
// The fallback manager serializes provider calls, so candidates are
// scored one at a time.
func (p *Pipeline) scoreAndGate(ctx context.Context, candidates []*model.Lead, stats *model.RunStats) []*model.Lead {
	var survivors []*model.Lead

	for _, l := range candidates {
		stats.Scored++

		if p.scorer != nil && l.FullContent != "" {
			p.scorer.ScoreLead(ctx, l)
		}

		if l.Score < p.cfg.Thresholds.Final {
			l.DropReason = model.DropPostScore
			continue
		}

		survivors = append(survivors, l)
		stats.Admitted++
	}

	return survivors
}

// partition splits survivors into instant alerts and the ranked digest,
// and delivers both. Alerts go out one lead at a time; the digest is
// the top N by score. A lead can be both alerted and in the digest; its
// status stays alerted.
func (p *Pipeline) partition(ctx context.Context, survivors []*model.Lead, stats *model.RunStats, opts RunOptions) {
	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Score > survivors[j].Score
	})

	for _, l := range survivors {
		if l.Score >= p.cfg.Thresholds.Alert {
			l.Status = model.LeadStatusAlerted
			stats.Alerted++
			if !opts.DryRun {
				_ = p.sinks.NotifyLead(ctx, *l)
			}
		}
	}

	digest := survivors
	if len(digest) > p.cfg.Thresholds.DigestSize {
		digest = digest[:p.cfg.Thresholds.DigestSize]
	}
	for _, l := range digest {
		if l.Status == model.LeadStatusNew {
			l.Status = model.LeadStatusDigested
		}
	}
	stats.Digested = len(digest)

	if !opts.DryRun && len(digest) > 0 {
		leads := make([]model.Lead, len(digest))
		for i, l := range digest {
			leads[i] = *l
		}
		_ = p.sinks.SendDigest(ctx, leads)
	}
}
