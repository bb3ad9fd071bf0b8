package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiresignal/scout-cli/internal/model"
)

type fakeSink struct {
	name      string
	leadErr   error
	digestErr error

	notified []model.Lead
	digests  [][]model.Lead
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) NotifyLead(_ context.Context, lead model.Lead) error {
	f.notified = append(f.notified, lead)
	return f.leadErr
}

func (f *fakeSink) SendDigest(_ context.Context, leads []model.Lead) error {
	f.digests = append(f.digests, leads)
	return f.digestErr
}

func TestMulti_NotifyLead_FansOut(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	failing := &fakeSink{name: "failing", leadErr: errors.New("down")}

	m := NewMulti(failing, ok)
	require.NoError(t, m.NotifyLead(context.Background(), highLead()))

	assert.Len(t, failing.notified, 1)
	assert.Len(t, ok.notified, 1, "failure in one sink must not block the next")
}

func TestMulti_SendDigest_SwallowsErrors(t *testing.T) {
	ok := &fakeSink{name: "ok"}
	failing := &fakeSink{name: "failing", digestErr: errors.New("down")}

	leads := []model.Lead{highLead(), highLead()}
	m := NewMulti(failing, ok)
	require.NoError(t, m.SendDigest(context.Background(), leads))

	require.Len(t, ok.digests, 1)
	assert.Len(t, ok.digests[0], 2)
}

func TestMulti_Empty(t *testing.T) {
	m := NewMulti()
	assert.NoError(t, m.NotifyLead(context.Background(), highLead()))
	assert.NoError(t, m.SendDigest(context.Background(), nil))
}

func TestScorePercent(t *testing.T) {
	assert.Equal(t, 92, scorePercent(0.92))
	assert.Equal(t, 85, scorePercent(0.85))
	assert.Equal(t, 100, scorePercent(1.0))
	assert.Equal(t, 10, scorePercent(0.1))
}
