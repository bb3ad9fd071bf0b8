// Package notify delivers lead alerts and digests to the configured sinks.
package notify

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/model"
)

// Notifier delivers lead notifications to a single sink.
type Notifier interface {
	Name() string
	// NotifyLead sends an instant alert for one high-value lead.
	NotifyLead(ctx context.Context, lead model.Lead) error
	// SendDigest sends a ranked summary of admitted leads.
	SendDigest(ctx context.Context, leads []model.Lead) error
}

// Multi fans out to several sinks. Per-sink failures are logged and
// swallowed: delivery is fire-and-forget from the pipeline's perspective.
type Multi struct {
	sinks []Notifier
}

func NewMulti(sinks ...Notifier) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) NotifyLead(ctx context.Context, lead model.Lead) error {
	for _, s := range m.sinks {
		if err := s.NotifyLead(ctx, lead); err != nil {
			zap.L().Warn("notify: instant alert failed",
				zap.String("sink", s.Name()),
				zap.String("lead_id", lead.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (m *Multi) SendDigest(ctx context.Context, leads []model.Lead) error {
	for _, s := range m.sinks {
		if err := s.SendDigest(ctx, leads); err != nil {
			zap.L().Warn("notify: digest failed",
				zap.String("sink", s.Name()),
				zap.Int("leads", len(leads)),
				zap.Error(err),
			)
		}
	}
	return nil
}

func scorePercent(score float64) int {
	return int(math.Round(score * 100))
}
