package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuswatch/focuswatch/internal/core/model"
)

// captureSink collects emitted sessions.
type captureSink struct {
	sessions []*model.Session
}

func (c *captureSink) EmitSession(_ context.Context, session *model.Session) error {
	c.sessions = append(c.sessions, session)
	return nil
}

func newTestMonitor(t *testing.T) (*ActivityMonitor, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	return New(Config{UserID: "u1"}, sink), sink
}

func event(ts int64, url string) model.ActivityEvent {
	return model.ActivityEvent{Type: model.EventClick, Timestamp: ts, URL: url}
}

func TestShortSession_Inactive(t *testing.T) {
	m, sink := newTestMonitor(t)
	ctx := context.Background()

	// Events at 0, 1000, 2000ms then silence.
	for _, ts := range []int64{0, 1000, 2000} {
		require.NoError(t, m.RecordEvent(ctx, event(ts, "https://example.com/a")))
	}
	require.NoError(t, m.CheckGap(ctx, 7000))

	require.Len(t, sink.sessions, 1)
	sess := sink.sessions[0]
	assert.Equal(t, int64(0), sess.StartTime)
	assert.Equal(t, int64(7000), sess.EndTime)
	assert.Equal(t, int64(7), sess.Duration)
	assert.Equal(t, model.SessionInactive, sess.SessionType)
	assert.Equal(t, "u1", sess.UserID)
	assert.NotEmpty(t, sess.ID)
}

func TestLongSession_Active(t *testing.T) {
	m, sink := newTestMonitor(t)
	ctx := context.Background()

	for ts := int64(0); ts <= 20000; ts += 1000 {
		require.NoError(t, m.RecordEvent(ctx, event(ts, "https://example.com")))
	}
	require.NoError(t, m.CheckGap(ctx, 25000))

	require.Len(t, sink.sessions, 1)
	sess := sink.sessions[0]
	assert.Equal(t, int64(25000), sess.EndTime)
	assert.Equal(t, int64(25), sess.Duration)
	assert.Equal(t, model.SessionActive, sess.SessionType)
}

func TestGapSplitsSessions(t *testing.T) {
	m, sink := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, m.RecordEvent(ctx, event(0, "https://a.com")))
	require.NoError(t, m.RecordEvent(ctx, event(1000, "https://a.com")))
	// 10s of silence, then activity resumes. The stale-gap path must close
	// the first session rather than stretching it.
	require.NoError(t, m.RecordEvent(ctx, event(11000, "https://b.com")))
	require.NoError(t, m.Flush(ctx))

	require.Len(t, sink.sessions, 2)
	first, second := sink.sessions[0], sink.sessions[1]

	assert.Equal(t, int64(0), first.StartTime)
	assert.Equal(t, int64(6000), first.EndTime)
	assert.Equal(t, "a.com", first.Domain)

	assert.Equal(t, int64(11000), second.StartTime)
	assert.Equal(t, "b.com", second.Domain)

	// Non-overlapping.
	assert.LessOrEqual(t, first.EndTime, second.StartTime)
}

func TestCheckGap_NoSession_NoOp(t *testing.T) {
	m, sink := newTestMonitor(t)

	// No event has ever arrived; the periodic check must do nothing.
	require.NoError(t, m.CheckGap(context.Background(), 100000))
	assert.Empty(t, sink.sessions)
}

func TestCheckGap_WithinThreshold_KeepsSessionOpen(t *testing.T) {
	m, sink := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, m.RecordEvent(ctx, event(1000, "https://a.com")))
	require.NoError(t, m.CheckGap(ctx, 4000))
	assert.Empty(t, sink.sessions)

	require.NoError(t, m.CheckGap(ctx, 6000))
	require.Len(t, sink.sessions, 1)
}

func TestMissingURL_FallsBackToUnknown(t *testing.T) {
	m, sink := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, m.RecordEvent(ctx, event(0, "")))
	require.NoError(t, m.CheckGap(ctx, 5000))

	require.Len(t, sink.sessions, 1)
	assert.Equal(t, model.UnknownURL, sink.sessions[0].URL)
	assert.Equal(t, model.UnknownURL, sink.sessions[0].Domain)
}

func TestEventCountTally(t *testing.T) {
	m, sink := newTestMonitor(t)
	ctx := context.Background()

	evs := []model.ActivityEvent{
		{Type: model.EventClick, Timestamp: 0, URL: "https://a.com"},
		{Type: model.EventKeyDown, Timestamp: 100, URL: "https://a.com"},
		{Type: model.EventKeyDown, Timestamp: 200, URL: "https://a.com"},
		{Type: model.EventMouseMove, Timestamp: 300, URL: "https://a.com"},
		{Type: model.EventType("scroll"), Timestamp: 400, URL: "https://a.com"}, // unrecognized
	}
	for _, ev := range evs {
		require.NoError(t, m.RecordEvent(ctx, ev))
	}
	require.NoError(t, m.Flush(ctx))

	require.Len(t, sink.sessions, 1)
	counts := sink.sessions[0].EventCount
	assert.Equal(t, 1, counts[model.EventClick])
	assert.Equal(t, 2, counts[model.EventKeyDown])
	assert.Equal(t, 1, counts[model.EventMouseMove])
	assert.NotContains(t, counts, model.EventType("scroll"))
}

func TestStaleEventDoesNotRewindLastActivity(t *testing.T) {
	m, sink := newTestMonitor(t)
	ctx := context.Background()

	require.NoError(t, m.RecordEvent(ctx, event(1000, "https://a.com")))
	require.NoError(t, m.RecordEvent(ctx, event(3000, "https://a.com")))
	// Delivered out of order; must not pull the session end backwards.
	require.NoError(t, m.RecordEvent(ctx, event(2000, "https://a.com")))
	require.NoError(t, m.Flush(ctx))

	require.Len(t, sink.sessions, 1)
	assert.Equal(t, int64(8000), sink.sessions[0].EndTime)
}

func TestFlush_Idle_NoOp(t *testing.T) {
	m, sink := newTestMonitor(t)
	require.NoError(t, m.Flush(context.Background()))
	assert.Empty(t, sink.sessions)
}
