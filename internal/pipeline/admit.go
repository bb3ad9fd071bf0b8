package pipeline

import (
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/identity"
	"github.com/hiresignal/scout-cli/internal/model"
)

// admit runs the sequential admission loop: malformed leads are
// skipped, duplicates, non-admissible locations, and sub-threshold
// scores are dropped. Survivors become crawl candidates and their
// identities join the in-memory seen set so duplicates later in the
// same batch cost nothing.
func (p *Pipeline) admit(leads []model.Lead, seen map[string]struct{}, stats *model.RunStats) []*model.Lead {
	var candidates []*model.Lead

	for i := range leads {
		l := &leads[i]

		if l.Company == "" || l.Title == "" || l.Link == "" {
			zap.L().Debug("pipeline: skipping malformed lead",
				zap.String("source", l.Source),
				zap.String("company", l.Company),
				zap.String("title", l.Title),
			)
			continue
		}

		identity.Assign(l)
		if _, dup := seen[l.ID]; dup {
			l.DropReason = model.DropDuplicate
			stats.Duplicates++
			continue
		}

		loc := p.geo.Normalize(l.Location)
		if !loc.Admissible {
			l.DropReason = model.DropGeo
			stats.GeoDropped++
			continue
		}
		l.City = loc.City
		l.State = loc.State
		l.Country = loc.Country
		l.RemoteType = loc.RemoteType

		p.filter.Process(l)
		if l.Score < p.cfg.Thresholds.Precrawl {
			l.DropReason = model.DropPrefilter
			stats.Prefiltered++
			continue
		}

		seen[l.ID] = struct{}{}
		candidates = append(candidates, l)
	}

	return candidates
}
