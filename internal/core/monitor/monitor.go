package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/focuswatch/focuswatch/internal/core/constants"
	"github.com/focuswatch/focuswatch/internal/core/model"
	"github.com/focuswatch/focuswatch/internal/util"
)

// SessionSink receives finalized sessions. Implementations must treat
// delivery as append-only; the monitor never revisits an emitted session.
type SessionSink interface {
	EmitSession(ctx context.Context, session *model.Session) error
}

// Config controls gap detection thresholds. Zero values fall back to the
// defaults in constants.
type Config struct {
	UserID          string
	GapThresholdMs  int64
	ActiveMinimumMs int64
}

// ActivityMonitor converts a stream of timestamped input events into closed
// Session records. It holds at most one in-flight session; everything else
// is emitted and forgotten.
//
// RecordEvent and CheckGap are driven from Run's single goroutine, so an
// event can never race a gap check: if the gap check finalizes first, the
// next event simply opens a new session instead of being dropped.
type ActivityMonitor struct {
	cfg  Config
	sink SessionSink

	// in-flight session state; open==false means Idle
	open         bool
	startTime    int64
	lastActivity int64
	url          string
	eventCount   map[model.EventType]int
}

// New creates an ActivityMonitor emitting to sink.
func New(cfg Config, sink SessionSink) *ActivityMonitor {
	if cfg.GapThresholdMs <= 0 {
		cfg.GapThresholdMs = constants.GapThresholdMs
	}
	if cfg.ActiveMinimumMs <= 0 {
		cfg.ActiveMinimumMs = constants.ActiveSessionThresholdMs
	}
	return &ActivityMonitor{
		cfg:        cfg,
		sink:       sink,
		eventCount: make(map[model.EventType]int),
	}
}

func (m *ActivityMonitor) idle() bool {
	return !m.open
}

// RecordEvent feeds one input event into the state machine. In Idle it opens
// a session; in Active it advances lastActivity and tallies the event type.
func (m *ActivityMonitor) RecordEvent(ctx context.Context, ev model.ActivityEvent) error {
	// An event that arrives later than lastActivity+gap means the previous
	// session already ended at lastActivity+gap; close it before opening the
	// next one so out-of-band event delivery cannot merge two sessions.
	if !m.idle() && ev.Timestamp-m.lastActivity >= m.cfg.GapThresholdMs {
		if err := m.finalize(ctx); err != nil {
			return err
		}
	}

	if m.idle() {
		m.open = true
		m.startTime = ev.Timestamp
		m.lastActivity = ev.Timestamp
		m.url = ev.URL
		if m.url == "" {
			m.url = model.UnknownURL
		}
		m.eventCount = make(map[model.EventType]int)
		m.countEvent(ev.Type)
		util.LogDebugf("Session opened at %d url=%s", ev.Timestamp, m.url)
		return nil
	}

	// Last writer wins on lastActivity; events may arrive slightly stale.
	if ev.Timestamp > m.lastActivity {
		m.lastActivity = ev.Timestamp
	}
	m.countEvent(ev.Type)
	return nil
}

func (m *ActivityMonitor) countEvent(t model.EventType) {
	for _, known := range model.KnownEventTypes {
		if t == known {
			m.eventCount[t]++
			return
		}
	}
}

// CheckGap finalizes the in-flight session if the quiet period has elapsed.
// With no session open it is a no-op, including before any event has ever
// arrived.
func (m *ActivityMonitor) CheckGap(ctx context.Context, nowMs int64) error {
	if m.idle() {
		return nil
	}
	if nowMs-m.lastActivity < m.cfg.GapThresholdMs {
		return nil
	}
	return m.finalize(ctx)
}

// Flush closes the in-flight session regardless of gap state. Used on
// shutdown so a tail of activity is not lost.
func (m *ActivityMonitor) Flush(ctx context.Context) error {
	if m.idle() {
		return nil
	}
	return m.finalize(ctx)
}

func (m *ActivityMonitor) finalize(ctx context.Context) error {
	endTime := m.lastActivity + m.cfg.GapThresholdMs
	span := endTime - m.startTime

	sessionType := model.SessionInactive
	if span >= m.cfg.ActiveMinimumMs {
		sessionType = model.SessionActive
	}

	session := &model.Session{
		ID:          uuid.NewString(),
		UserID:      m.cfg.UserID,
		StartTime:   m.startTime,
		EndTime:     endTime,
		Duration:    span / 1000,
		SessionType: sessionType,
		URL:         m.url,
		Domain:      model.DomainOf(m.url),
		EventCount:  m.eventCount,
	}

	// Reset to Idle before emitting so a sink error cannot leave a
	// half-closed session behind.
	m.open = false
	m.startTime = 0
	m.lastActivity = 0
	m.url = ""
	m.eventCount = make(map[model.EventType]int)

	util.LogInfof("Session %s closed: %d-%d (%ds, %s, %s)",
		session.ID, session.StartTime, session.EndTime,
		session.Duration, session.SessionType, session.Domain)

	return m.sink.EmitSession(ctx, session)
}

// Run drives the monitor from an event channel, running the periodic gap
// check until the channel closes or the context is cancelled. The in-flight
// session is flushed on exit.
func (m *ActivityMonitor) Run(ctx context.Context, events <-chan model.ActivityEvent) error {
	ticker := time.NewTicker(constants.GapCheckPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return m.Flush(context.WithoutCancel(ctx))
		case ev, ok := <-events:
			if !ok {
				return m.Flush(ctx)
			}
			if err := m.RecordEvent(ctx, ev); err != nil {
				util.LogErrorf("Failed to record event: %v", err)
			}
		case now := <-ticker.C:
			if err := m.CheckGap(ctx, now.UnixMilli()); err != nil {
				util.LogErrorf("Gap check failed: %v", err)
			}
		}
	}
}
