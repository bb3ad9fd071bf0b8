package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresignal/scout-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T, opts Options) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath, opts)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testLead(id, title string, score float64) model.Lead {
	return model.Lead{
		ID:        id,
		Source:    "greenhouse",
		Company:   "Acme",
		Title:     title,
		Link:      "https://boards.example.com/acme/" + id,
		Snippet:   "Build services.",
		Location:  "Austin, TX",
		Country:   "USA",
		Score:     score,
		Status:    model.LeadStatusNew,
		CreatedAt: time.Now().UTC(),
	}
}

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_Ping(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	assert.NoError(t, st.Ping(context.Background()))
}

// --- Seen IDs ---

func TestSQLite_SeenIDs_RecordAndLoad(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	seen, err := st.LoadSeenIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, seen)

	require.NoError(t, st.RecordSeenIDs(ctx, []string{"a", "b"}))

	seen, err = st.LoadSeenIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.Contains(t, seen, "a")
	assert.Contains(t, seen, "b")
}

func TestSQLite_SeenIDs_DuplicatesIgnored(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, st.RecordSeenIDs(ctx, []string{"a", "b"}))
	require.NoError(t, st.RecordSeenIDs(ctx, []string{"b", "c"}))

	seen, err := st.LoadSeenIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestSQLite_SeenIDs_EmptyRecordNoop(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	assert.NoError(t, st.RecordSeenIDs(context.Background(), nil))
}

// --- Leads ---

func TestSQLite_Leads_AppendAndList(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	posted := time.Date(2025, 11, 2, 13, 30, 0, 0, time.UTC)
	lead := testLead("lead-1", "Backend Engineer", 0.8)
	lead.Category = model.CategoryBackend
	lead.MatchedKeywords = []string{"golang", "kubernetes"}
	lead.Notes = []string{"[Crawled]", "LLM: Strong match."}
	lead.PostedAt = &posted

	require.NoError(t, st.AppendLeads(ctx, []model.Lead{
		lead,
		testLead("lead-2", "Data Engineer", 0.6),
	}))

	leads, err := st.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 2)

	// Ordered by score, highest first.
	got := leads[0]
	assert.Equal(t, "lead-1", got.ID)
	assert.Equal(t, "Backend Engineer", got.Title)
	assert.Equal(t, model.CategoryBackend, got.Category)
	assert.Equal(t, []string{"golang", "kubernetes"}, got.MatchedKeywords)
	assert.Equal(t, []string{"[Crawled]", "LLM: Strong match."}, got.Notes)
	require.NotNil(t, got.PostedAt)
	assert.True(t, got.PostedAt.Equal(posted))
}

func TestSQLite_Leads_UpsertByID(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	lead := testLead("lead-1", "Backend Engineer", 0.5)
	require.NoError(t, st.AppendLeads(ctx, []model.Lead{lead}))

	lead.Score = 0.9
	lead.Status = model.LeadStatusAlerted
	require.NoError(t, st.AppendLeads(ctx, []model.Lead{lead}))

	leads, err := st.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 0.9, leads[0].Score)
	assert.Equal(t, model.LeadStatusAlerted, leads[0].Status)
}

func TestSQLite_Leads_Filters(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	high := testLead("lead-1", "Backend Engineer", 0.9)
	high.Status = model.LeadStatusAlerted
	high.Category = model.CategoryBackend

	mid := testLead("lead-2", "Data Engineer", 0.7)
	mid.Source = "lever"
	mid.Category = model.CategoryData

	low := testLead("lead-3", "Frontend Engineer", 0.3)
	low.Category = model.CategoryFrontend

	require.NoError(t, st.AppendLeads(ctx, []model.Lead{high, mid, low}))

	byStatus, err := st.ListLeads(ctx, LeadFilter{Status: model.LeadStatusAlerted})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "lead-1", byStatus[0].ID)

	bySource, err := st.ListLeads(ctx, LeadFilter{Source: "lever"})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "lead-2", bySource[0].ID)

	byCategory, err := st.ListLeads(ctx, LeadFilter{Category: model.CategoryData})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)

	byScore, err := st.ListLeads(ctx, LeadFilter{MinScore: 0.6})
	require.NoError(t, err)
	assert.Len(t, byScore, 2)

	limited, err := st.ListLeads(ctx, LeadFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "lead-1", limited[0].ID, "highest score first")
}

func TestSQLite_Leads_SinceFilter(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	stale := testLead("lead-old", "Backend Engineer", 0.8)
	stale.CreatedAt = time.Now().UTC().Add(-72 * time.Hour)
	fresh := testLead("lead-new", "Platform Engineer", 0.7)

	require.NoError(t, st.AppendLeads(ctx, []model.Lead{stale, fresh}))

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	recent, err := st.ListLeads(ctx, LeadFilter{Since: &cutoff})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "lead-new", recent[0].ID)

	all, err := st.ListLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_Leads_AppendEmptyNoop(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	assert.NoError(t, st.AppendLeads(context.Background(), nil))
}

// --- Runs ---

func TestSQLite_Runs_Lifecycle(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	latest, err := st.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest, "no runs yet")

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	latest, err = st.GetLatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, model.RunStatusRunning, latest.Status)
	assert.Nil(t, latest.FinishedAt)

	run.Status = model.RunStatusComplete
	run.Stats = model.RunStats{Fetched: 10, Admitted: 3, LLMCalls: 5}
	require.NoError(t, st.FinishRun(ctx, run))

	latest, err = st.GetLatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, model.RunStatusComplete, latest.Status)
	assert.Equal(t, 10, latest.Stats.Fetched)
	assert.Equal(t, 3, latest.Stats.Admitted)
	assert.Equal(t, 5, latest.Stats.LLMCalls)
	assert.NotNil(t, latest.FinishedAt)
}

func TestSQLite_Runs_FailedRunKeepsError(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	require.NoError(t, err)

	run.Status = model.RunStatusFailed
	run.Error = "store unavailable"
	require.NoError(t, st.FinishRun(ctx, run))

	latest, err := st.GetLatestRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, model.RunStatusFailed, latest.Status)
	assert.Equal(t, "store unavailable", latest.Error)
}

func TestSQLite_Runs_FinishUnknownRun(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})

	err := st.FinishRun(context.Background(), &model.Run{ID: "nope", Status: model.RunStatusComplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_Runs_ListNewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	first, err := st.CreateRun(ctx)
	require.NoError(t, err)
	second, err := st.CreateRun(ctx)
	require.NoError(t, err)

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	one, err := st.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, second.ID, one[0].ID)
}

// --- LLM response cache ---

func TestSQLite_ResponseCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, st.SetCachedResponse(ctx, "prompt-hash", "SCORE: 0.8\nREASON: Strong match."))

	text, ok, err := st.GetCachedResponse(ctx, "prompt-hash")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SCORE: 0.8\nREASON: Strong match.", text)
}

func TestSQLite_ResponseCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})

	text, ok, err := st.GetCachedResponse(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestSQLite_ResponseCache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t, Options{})
	ctx := context.Background()

	require.NoError(t, st.SetCachedResponse(ctx, "k", "first"))
	require.NoError(t, st.SetCachedResponse(ctx, "k", "second"))

	text, ok, err := st.GetCachedResponse(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", text)
}

func TestSQLite_ResponseCache_Expiry(t *testing.T) {
	// Negative TTL writes entries that are already expired.
	st := newTestSQLiteStore(t, Options{ResponseTTL: -time.Hour})
	ctx := context.Background()

	require.NoError(t, st.SetCachedResponse(ctx, "stale", "old response"))

	_, ok, err := st.GetCachedResponse(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := st.DeleteExpiredResponses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
