// Package store persists leads, seen fingerprints, run records, and the
// LLM response cache. Two backends share one interface: SQLite for
// single-machine use and Postgres for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/hiresignal/scout-cli/internal/model"
)

// defaultResponseTTL is how long cached LLM responses stay valid when
// the config does not say otherwise.
const defaultResponseTTL = 7 * 24 * time.Hour

// LeadFilter specifies criteria for listing stored leads.
type LeadFilter struct {
	Status   model.LeadStatus `json:"status,omitempty"`
	Source   string           `json:"source,omitempty"`
	Category model.Category   `json:"category,omitempty"`
	MinScore float64          `json:"min_score,omitempty"`
	Since    *time.Time       `json:"since,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// Options tunes a store beyond its connection string.
type Options struct {
	// ResponseTTL is the validity window for cached LLM responses;
	// zero means defaultResponseTTL.
	ResponseTTL time.Duration
	// Pool holds Postgres pool sizing; ignored by SQLite.
	Pool *PoolConfig
}

// Store defines the persistence interface for the intake pipeline.
type Store interface {
	// Dedupe ledger
	LoadSeenIDs(ctx context.Context) (map[string]struct{}, error)
	RecordSeenIDs(ctx context.Context, ids []string) error

	// Leads
	AppendLeads(ctx context.Context, leads []model.Lead) error
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error)

	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	FinishRun(ctx context.Context, run *model.Run) error
	GetLatestRun(ctx context.Context) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// LLM response cache
	GetCachedResponse(ctx context.Context, key string) (string, bool, error)
	SetCachedResponse(ctx context.Context, key, text string) error
	DeleteExpiredResponses(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
