package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/trace"
)

func newTestView(l trace.Lister) *View {
	v := NewView(l)
	v.now = func() time.Time { return now }
	return v
}

func TestView_RecomputesOnRecordOrCriteriaChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := trace.NewMemoryStore()
	for _, r := range fixture() {
		require.NoError(t, store.Append(ctx, r))
	}

	v := newTestView(store)
	var seen []Snapshot
	cancel := v.Subscribe(func(s Snapshot) { seen = append(seen, s) })

	snap := v.Load(ctx)
	require.Len(t, seen, 1)
	require.Equal(t, 5, snap.Total)
	require.Equal(t, 5, snap.Summary.TotalTraces)

	// Same record set: nothing to re-render.
	v.Load(ctx)
	require.Len(t, seen, 1)

	snap = v.SetCriteria(Criteria{MessageType: "user", Status: All, DateRange: All})
	require.Len(t, seen, 2)
	require.Equal(t, []string{"3", "1"}, ids(snap.Records))
	require.Equal(t, 2, snap.Summary.UserMessages)

	v.SetCriteria(snap.Criteria)
	require.Len(t, seen, 2)

	require.NoError(t, store.Append(ctx, rec("6", trace.MessageUser, trace.StatusSuccess, time.Minute)))
	snap = v.Load(ctx)
	require.Len(t, seen, 3)
	require.Equal(t, []string{"6", "3", "1"}, ids(snap.Records))

	cancel()
	v.Reset()
	require.Len(t, seen, 3)
	require.Zero(t, v.Snapshot().Total)
}

func TestView_ResetIsTheClearingSignal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := trace.NewMemoryStore()
	require.NoError(t, store.Append(ctx, rec("1", trace.MessageAgent, trace.StatusError, time.Minute)))

	v := newTestView(store)
	v.Load(ctx)

	cleared := false
	v.Subscribe(func(s Snapshot) { cleared = s.Total == 0 && len(s.Records) == 0 })
	v.Reset()
	require.True(t, cleared)
	require.Equal(t, Summary{LanguageBreakdown: map[string]int{}}, v.Snapshot().Summary)
}

type brokenLister struct{}

func (brokenLister) List(context.Context) ([]trace.Record, error) {
	return nil, context.DeadlineExceeded
}

func TestView_LoadFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	snap := newTestView(brokenLister{}).Load(context.Background())
	require.Zero(t, snap.Total)
	require.Empty(t, snap.Records)
	require.Zero(t, snap.Summary.SuccessRate)
}
