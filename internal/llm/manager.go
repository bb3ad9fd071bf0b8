// Package llm routes text-completion requests across a ranked list of
// provider endpoints with per-endpoint circuit breaking and a run-wide
// call budget. Deep relevance scoring and query diversification sit on
// top of the routing primitive.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/resilience"
)

// Refusal signals returned by Generate. Callers treat both as "could not
// get a judgment" and leave prior state unchanged; neither aborts a run.
var (
	ErrBudgetExhausted = eris.New("llm: run call budget exhausted")
	ErrExhausted       = eris.New("llm: every endpoint failed or is cooling down")
)

// Generator produces a completion for a prompt, or reports refusal.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// endpoint is one (provider, model) candidate in fallback order.
type endpoint struct {
	client ProviderClient
	model  string
}

func (e endpoint) key() string {
	return e.client.Name() + ":" + e.model
}

// Manager tries endpoints in configured order until one yields text.
type Manager struct {
	endpoints []endpoint
	breaker   *resilience.Breaker
	budget    *resilience.Budget
}

// NewManager builds the fallback order from cfg, resolving each provider
// name against the supplied clients. Providers with no matching client
// are skipped with a warning so a missing API key degrades the lineup
// instead of killing startup.
func NewManager(cfg Config, clients []ProviderClient) *Manager {
	byName := make(map[string]ProviderClient, len(clients))
	for _, c := range clients {
		byName[c.Name()] = c
	}

	var eps []endpoint
	for _, pc := range cfg.Providers {
		client, ok := byName[pc.Name]
		if !ok {
			zap.L().Warn("llm: no client for configured provider, skipping",
				zap.String("provider", pc.Name),
			)
			continue
		}
		for _, m := range pc.Models {
			eps = append(eps, endpoint{client: client, model: m})
		}
	}

	return &Manager{
		endpoints: eps,
		breaker:   resilience.NewBreaker(time.Duration(cfg.CooldownSeconds) * time.Second),
		budget:    resilience.NewBudget(cfg.RunBudget),
	}
}

// Generate tries each eligible endpoint in order and returns the first
// non-empty completion. The budget is checked once up front; endpoint
// errors and empty completions record a breaker failure and move on
// without surfacing to the caller.
func (m *Manager) Generate(ctx context.Context, prompt string) (string, error) {
	if m.budget.Exhausted() {
		zap.L().Warn("llm: call budget exhausted for this run",
			zap.Int64("used", int64(m.budget.Used())),
		)
		return "", ErrBudgetExhausted
	}

	for _, ep := range m.endpoints {
		if ctx.Err() != nil {
			return "", eris.Wrap(ctx.Err(), "llm: generate cancelled")
		}

		key := ep.key()
		if !m.breaker.Allow(key) {
			continue
		}

		zap.L().Info("llm: attempting completion", zap.String("endpoint", key))
		text, err := ep.client.Generate(ctx, ep.model, prompt)
		if err != nil {
			zap.L().Warn("llm: endpoint failed",
				zap.String("endpoint", key),
				zap.Error(err),
			)
			m.breaker.RecordFailure(key)
			continue
		}
		if strings.TrimSpace(text) == "" {
			zap.L().Warn("llm: endpoint returned empty completion",
				zap.String("endpoint", key),
			)
			m.breaker.RecordFailure(key)
			continue
		}

		m.budget.Spend()
		return text, nil
	}

	return "", ErrExhausted
}

// IsRefusal reports whether err is one of the non-fatal refusal signals.
func IsRefusal(err error) bool {
	return eris.Is(err, ErrBudgetExhausted) || eris.Is(err, ErrExhausted)
}

// CallsUsed returns the number of successful completions this run.
func (m *Manager) CallsUsed() int64 {
	return int64(m.budget.Used())
}

// CoolingDown returns how many endpoints are currently in cooldown.
func (m *Manager) CoolingDown() int {
	return m.breaker.CoolingDown()
}
