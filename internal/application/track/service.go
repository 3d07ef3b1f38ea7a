package track

import (
	"context"
	"fmt"
	"time"

	"github.com/focuswatch/focuswatch/internal/core/classify"
	"github.com/focuswatch/focuswatch/internal/core/constants"
	"github.com/focuswatch/focuswatch/internal/core/model"
	"github.com/focuswatch/focuswatch/internal/core/monitor"
	"github.com/focuswatch/focuswatch/internal/data/events"
	"github.com/focuswatch/focuswatch/internal/data/store"
	"github.com/focuswatch/focuswatch/internal/util"
)

// Config holds the track service configuration.
type Config struct {
	UserID     string
	EventsPath string
	Follow     bool
}

// Service wires the event source through the activity monitor into the
// store, and gates the classification pipeline behind the per-user counter.
type Service struct {
	cfg         Config
	store       store.Store
	monitor     *monitor.ActivityMonitor
	categorizer classify.Categorizer // optional
	pipeline    *classify.Pipeline   // optional
}

// NewService creates a track Service. The categorizer and pipeline are
// optional collaborators; without them sessions persist uncategorized and
// classification never fires.
func NewService(cfg Config, st store.Store, categorizer classify.Categorizer, pipeline *classify.Pipeline) *Service {
	svc := &Service{
		cfg:         cfg,
		store:       st,
		categorizer: categorizer,
		pipeline:    pipeline,
	}
	svc.monitor = monitor.New(monitor.Config{UserID: cfg.UserID}, svc)
	return svc
}

// Run ingests the event file. In follow mode it tails the file until the
// context is cancelled; otherwise it replays the file once, driving session
// boundaries purely from event timestamps, and flushes the tail session.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Follow {
		tailer, err := events.NewTailer(s.cfg.EventsPath)
		if err != nil {
			return fmt.Errorf("watch %s: %w", s.cfg.EventsPath, err)
		}

		ch := make(chan model.ActivityEvent, 256)
		go func() {
			if err := tailer.Run(ctx, ch); err != nil {
				util.LogErrorf("Event tailer stopped: %v", err)
			}
		}()
		return s.monitor.Run(ctx, ch)
	}

	evs, err := events.ParseFile(s.cfg.EventsPath)
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.cfg.EventsPath, err)
	}

	for _, ev := range evs {
		if err := s.monitor.RecordEvent(ctx, ev); err != nil {
			return err
		}
	}
	return s.monitor.Flush(ctx)
}

// EmitSession implements monitor.SessionSink: categorize (best effort),
// persist, and bump the classification trigger for Growth sessions. A
// counter or pipeline failure never fails the emit; the session is already
// durable.
func (s *Service) EmitSession(ctx context.Context, session *model.Session) error {
	if s.categorizer != nil {
		callCtx, cancel := context.WithTimeout(ctx, constants.ClassifyTimeout)
		category, err := s.categorizer.Categorize(callCtx, session)
		cancel()
		if err != nil {
			util.LogWarnf("Categorization failed for session %s: %v", session.ID, err)
		} else {
			session.SummaryCategory = category
		}
	}

	if err := s.store.AddSession(ctx, session); err != nil {
		return err
	}

	if session.SummaryCategory != model.CategoryGrowth {
		return nil
	}

	triggered, err := s.store.BumpClassifyCounter(ctx, session.UserID)
	if err != nil {
		util.LogErrorf("Failed to bump classify counter for %s: %v", session.UserID, err)
		return nil
	}
	if triggered && s.pipeline != nil {
		if err := s.pipeline.Run(ctx, session.UserID, time.Now()); err != nil {
			util.LogErrorf("Classification run failed for %s: %v", session.UserID, err)
		}
	}
	return nil
}
