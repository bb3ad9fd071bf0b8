package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresignal/scout-cli/internal/model"
)

// fakeGen is a scripted Generator that records prompts.
type fakeGen struct {
	text    string
	err     error
	prompts []string
}

func (g *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

func TestParseVerdict(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		text       string
		wantOK     bool
		wantScore  float64
		wantReason string
	}{
		{
			name:       "clean format",
			text:       "SCORE: 0.85\nREASON: Strong senior backend role in NYC.",
			wantOK:     true,
			wantScore:  0.85,
			wantReason: "Strong senior backend role in NYC.",
		},
		{
			name:       "markdown noise around payload",
			text:       "Sure, here is my assessment:\n```\nSCORE: 0.7\nREASON: Good stack fit.\n```\nLet me know if you need more.",
			wantOK:     true,
			wantScore:  0.7,
			wantReason: "Good stack fit.",
		},
		{
			name:       "lowercase labels",
			text:       "score: 0.4\nreason: Vague posting.",
			wantOK:     true,
			wantScore:  0.4,
			wantReason: "Vague posting.",
		},
		{
			name:      "integer score",
			text:      "SCORE: 1\nREASON: Perfect.",
			wantOK:    true,
			wantScore: 1.0,
		},
		{
			name:      "out of range clamps high",
			text:      "SCORE: 1.7\nREASON: Overeager model.",
			wantOK:    true,
			wantScore: 1.0,
		},
		{
			name:      "score without reason",
			text:      "SCORE: 0.55",
			wantOK:    true,
			wantScore: 0.55,
		},
		{
			name:   "no structure",
			text:   "I think this posting looks pretty good overall.",
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, ok := ParseVerdict(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.InDelta(t, tt.wantScore, v.Score, 0.0001)
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, v.Reason)
			}
		})
	}
}

func scoringLead() *model.Lead {
	return &model.Lead{
		ID:          "lead-1",
		Company:     "Acme",
		Title:       "Senior Backend Engineer",
		Location:    "New York, NY",
		Snippet:     "python, aws, kubernetes",
		FullContent: "We are hiring a senior backend engineer to build APIs in Go and Python.",
		Score:       0.6,
		Notes:       []string{"Snippet vague, need deep crawl to confirm."},
	}
}

func TestScoreLead_AppliesVerdict(t *testing.T) {
	gen := &fakeGen{text: "SCORE: 0.9\nREASON: Excellent match for a senior US role."}
	s := NewScorer(gen, nil)

	l := scoringLead()
	applied := s.ScoreLead(context.Background(), l)

	assert.True(t, applied)
	assert.InDelta(t, 0.9, l.Score, 0.0001)
	assert.Equal(t, []string{"LLM: Excellent match for a senior US role."}, l.Notes)
}

func TestScoreLead_RefusalLeavesLeadUntouched(t *testing.T) {
	gen := &fakeGen{err: ErrExhausted}
	s := NewScorer(gen, nil)

	l := scoringLead()
	wantScore := l.Score
	wantNotes := append([]string(nil), l.Notes...)

	applied := s.ScoreLead(context.Background(), l)

	assert.False(t, applied)
	assert.Equal(t, wantScore, l.Score)
	assert.Equal(t, wantNotes, l.Notes)
}

func TestScoreLead_UnparseableLeavesLeadUntouched(t *testing.T) {
	gen := &fakeGen{text: "I would rather not commit to a number here."}
	s := NewScorer(gen, nil)

	l := scoringLead()
	wantScore := l.Score
	wantNotes := append([]string(nil), l.Notes...)

	applied := s.ScoreLead(context.Background(), l)

	assert.False(t, applied)
	assert.Equal(t, wantScore, l.Score)
	assert.Equal(t, wantNotes, l.Notes)
}

// hitCache answers every lookup with a fixed response.
type hitCache struct {
	text    string
	lastKey string
}

func (c *hitCache) GetCachedResponse(_ context.Context, key string) (string, bool, error) {
	c.lastKey = key
	return c.text, true, nil
}

func (c *hitCache) SetCachedResponse(_ context.Context, _, _ string) error { return nil }

func TestScoreLead_CacheHitSkipsProvider(t *testing.T) {
	gen := &fakeGen{text: "SCORE: 0.1\nREASON: Should not be used."}
	cache := &hitCache{text: "SCORE: 0.8\nREASON: Cached verdict."}
	s := NewScorer(gen, cache)

	l := scoringLead()
	applied := s.ScoreLead(context.Background(), l)

	assert.True(t, applied)
	assert.InDelta(t, 0.8, l.Score, 0.0001)
	assert.Equal(t, []string{"LLM: Cached verdict."}, l.Notes)
	assert.Empty(t, gen.prompts, "cache hit must not call the provider")
	assert.NotEmpty(t, cache.lastKey)
}

// recordCache misses every lookup and records writes.
type recordCache struct {
	sets map[string]string
}

func (c *recordCache) GetCachedResponse(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

func (c *recordCache) SetCachedResponse(_ context.Context, key, text string) error {
	if c.sets == nil {
		c.sets = make(map[string]string)
	}
	c.sets[key] = text
	return nil
}

func TestScoreLead_WritesCacheOnSuccess(t *testing.T) {
	gen := &fakeGen{text: "SCORE: 0.75\nREASON: Solid fit."}
	cache := &recordCache{}
	s := NewScorer(gen, cache)

	l := scoringLead()
	require.True(t, s.ScoreLead(context.Background(), l))

	require.Len(t, cache.sets, 1)
	for _, v := range cache.sets {
		assert.Equal(t, "SCORE: 0.75\nREASON: Solid fit.", v)
	}
}

func TestScoreLead_NoCacheWriteOnUnparseable(t *testing.T) {
	gen := &fakeGen{text: "no verdict here"}
	cache := &recordCache{}
	s := NewScorer(gen, cache)

	l := scoringLead()
	assert.False(t, s.ScoreLead(context.Background(), l))
	assert.Empty(t, cache.sets)
}

func TestScoreLead_TruncatesLongContent(t *testing.T) {
	gen := &fakeGen{text: "SCORE: 0.5\nREASON: Fine."}
	s := NewScorer(gen, nil)

	l := scoringLead()
	l.FullContent = strings.Repeat("a", maxContentChars+500) + "TAILMARKER"

	require.True(t, s.ScoreLead(context.Background(), l))
	require.Len(t, gen.prompts, 1)
	assert.NotContains(t, gen.prompts[0], "TAILMARKER")
	assert.Contains(t, gen.prompts[0], "Senior Backend Engineer")
}

func TestScoreLead_FallsBackToSnippet(t *testing.T) {
	gen := &fakeGen{text: "SCORE: 0.5\nREASON: Fine."}
	s := NewScorer(gen, nil)

	l := scoringLead()
	l.FullContent = ""

	require.True(t, s.ScoreLead(context.Background(), l))
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "python, aws, kubernetes")
}
