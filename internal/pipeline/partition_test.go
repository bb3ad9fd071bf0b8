package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresignal/scout-cli/internal/llm"
	"github.com/hiresignal/scout-cli/internal/model"
)

func TestPartitionCapsDigest(t *testing.T) {
	sink := &fakeSink{}
	p := New(testConfig(), newFakeStore(), nil, testNormalizer(), testFilter(), &fakeEnricher{}, nil, nil, sink)

	// 25 survivors with ascending scores under the alert threshold.
	var survivors []*model.Lead
	for i := 0; i < 25; i++ {
		l := rawLead("Acme", fmt.Sprintf("Engineer %d", i), fmt.Sprintf("https://acme.com/jobs/%d", i), "NYC", "python")
		l.Score = 0.60 + float64(i)*0.01
		survivors = append(survivors, &l)
	}
	stats := &model.RunStats{}

	p.partition(context.Background(), survivors, stats, RunOptions{})

	assert.Equal(t, 20, stats.Digested)
	assert.Equal(t, 0, stats.Alerted)
	require.Len(t, sink.digests, 1)
	digest := sink.digests[0]
	require.Len(t, digest, 20)

	// Ranked best first; the lowest five never make the digest.
	assert.Equal(t, "Engineer 24", digest[0].Title)
	assert.Equal(t, "Engineer 5", digest[19].Title)
	for _, l := range digest {
		assert.Equal(t, model.LeadStatusDigested, l.Status)
	}

	// Survivors outside the digest stay new but remain admitted.
	statuses := map[model.LeadStatus]int{}
	for _, l := range survivors {
		statuses[l.Status]++
	}
	assert.Equal(t, 20, statuses[model.LeadStatusDigested])
	assert.Equal(t, 5, statuses[model.LeadStatusNew])
}

func TestPartitionDryRunSetsStatusesOnly(t *testing.T) {
	sink := &fakeSink{}
	p := New(testConfig(), newFakeStore(), nil, testNormalizer(), testFilter(), &fakeEnricher{}, nil, nil, sink)

	hot := rawLead("Acme", "Staff Engineer", "https://acme.com/jobs/1", "NYC", "python")
	hot.Score = 0.9
	stats := &model.RunStats{}

	p.partition(context.Background(), []*model.Lead{&hot}, stats, RunOptions{DryRun: true})

	assert.Equal(t, 1, stats.Alerted)
	assert.Equal(t, 1, stats.Digested)
	assert.Equal(t, model.LeadStatusAlerted, hot.Status)
	assert.Empty(t, sink.notified)
	assert.Empty(t, sink.digests)
}

func TestScoreAndGateWithoutScorer(t *testing.T) {
	p := New(testConfig(), newFakeStore(), nil, testNormalizer(), testFilter(), &fakeEnricher{}, nil, nil, &fakeSink{})

	enriched := rawLead("Acme", "Backend Engineer", "https://acme.com/jobs/1", "NYC", "python aws")
	enriched.Score = 0.7
	enriched.FullContent = "full posting text"
	weak := rawLead("Globex", "Engineer", "https://globex.com/jobs/2", "NYC", "")
	weak.Score = 0.1
	stats := &model.RunStats{}

	survivors := p.scoreAndGate(context.Background(), []*model.Lead{&enriched, &weak}, stats)

	require.Len(t, survivors, 1)
	assert.InDelta(t, 0.7, survivors[0].Score, 0.001)
	assert.Equal(t, 2, stats.Scored)
	assert.Equal(t, 1, stats.Admitted)
	assert.Equal(t, model.DropPostScore, weak.DropReason)
}

func TestScoreAndGateSkipsLeadsWithoutContent(t *testing.T) {
	gen := &fakeGen{response: "SCORE: 0.95\nREASON: looks great"}
	p := New(testConfig(), newFakeStore(), nil, testNormalizer(), testFilter(), &fakeEnricher{}, llm.NewScorer(gen, nil), nil, &fakeSink{})

	bare := rawLead("Acme", "Backend Engineer", "https://acme.com/jobs/1", "NYC", "python aws")
	bare.Score = 0.7
	stats := &model.RunStats{}

	survivors := p.scoreAndGate(context.Background(), []*model.Lead{&bare}, stats)

	require.Len(t, survivors, 1)
	assert.Equal(t, 0, gen.calls)
	assert.InDelta(t, 0.7, survivors[0].Score, 0.001)
}
