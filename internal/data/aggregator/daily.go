package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/focuswatch/focuswatch/internal/core/constants"
	"github.com/focuswatch/focuswatch/internal/core/model"
	"github.com/focuswatch/focuswatch/internal/core/timeblock"
	"github.com/focuswatch/focuswatch/internal/data/store"
	"github.com/focuswatch/focuswatch/internal/util"
)

// DailyAggregator rolls one logical day's blocks into a DailyLog per user,
// then deletes the consumed blocks. The rollup re-derives from blocks rather
// than accumulating, so stale blocks left by a failed delete are harmless on
// the next run.
type DailyAggregator struct {
	store   store.Store
	indexer *timeblock.Indexer
}

// NewDailyAggregator creates a DailyAggregator.
func NewDailyAggregator(st store.Store, indexer *timeblock.Indexer) *DailyAggregator {
	return &DailyAggregator{store: st, indexer: indexer}
}

// Run closes the logical day that ended at the invocation instant: the
// window [dayStart(at)-24h, dayStart(at)). One user's failure does not abort
// the others; cancellation is honored at the per-user boundary.
func (a *DailyAggregator) Run(ctx context.Context, at time.Time) error {
	dayEnd := a.indexer.DayStart(at.UnixMilli())
	dayStart := dayEnd - 24*time.Hour.Milliseconds()
	date := a.indexer.DayDate(dayStart)

	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		util.LogDebug("Daily aggregation: no users, nothing to do")
		return nil
	}

	util.LogInfof("Daily aggregation: closing day %s [%d, %d) for %d users",
		date, dayStart, dayEnd, len(users))

	failed := fanOutUsers(ctx, users, func(ctx context.Context, userID string) error {
		return a.aggregateUser(ctx, userID, date, dayStart, dayEnd, at.UnixMilli())
	})
	if failed > 0 {
		return fmt.Errorf("daily aggregation failed for %d of %d users", failed, len(users))
	}
	return nil
}

func (a *DailyAggregator) aggregateUser(ctx context.Context, userID, date string, dayStart, dayEnd, computedAt int64) error {
	blocks, err := a.store.TimeBlocksInRange(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("fetch blocks for %s: %w", userID, err)
	}
	if len(blocks) == 0 {
		// Legitimate empty day: no write, no delete.
		util.LogDebugf("Daily aggregation: no blocks for %s on %s, skipping", userID, date)
		return nil
	}

	log := RollUpDay(userID, date, dayStart, dayEnd, computedAt, blocks)
	if err := a.store.UpsertDailyLog(ctx, log); err != nil {
		return fmt.Errorf("write daily log for %s: %w", userID, err)
	}

	// Deletion failure after a successful log write is a recoverable
	// inconsistency: log it and move on, the next run re-derives.
	docIDs := make([]string, len(blocks))
	for i := range blocks {
		docIDs[i] = store.BlockDocIDFor(&blocks[i])
	}
	for start := 0; start < len(docIDs); start += constants.MaxDeleteBatch {
		end := start + constants.MaxDeleteBatch
		if end > len(docIDs) {
			end = len(docIDs)
		}
		if err := a.store.DeleteTimeBlocks(ctx, userID, docIDs[start:end]); err != nil {
			util.LogWarnf("Failed to delete %d consumed blocks for %s on %s: %v",
				end-start, userID, date, err)
			return nil
		}
	}

	util.LogInfof("Daily log %s/%s: %d blocks, durations=%v",
		userID, date, len(blocks), log.DailyDurations)
	return nil
}

// RollUpDay sums block-level category durations into a DailyLog. Block
// durations are milliseconds; the rollup converts each category's total to
// whole seconds once, after summing, which keeps the daily total bounded by
// the day's session seconds.
func RollUpDay(userID, date string, dayStart, dayEnd, computedAt int64, blocks []model.TimeBlock) *model.DailyLog {
	totalMs := make(map[model.Category]int64, len(model.TrackedCategories))
	for _, block := range blocks {
		for _, cat := range model.TrackedCategories {
			totalMs[cat] += block.CategoryDurations[cat]
		}
	}

	durations := make(map[model.Category]int64, len(model.TrackedCategories))
	for _, cat := range model.TrackedCategories {
		durations[cat] = totalMs[cat] / 1000
	}

	return &model.DailyLog{
		UserID:         userID,
		Date:           date,
		StartTime:      dayStart,
		EndTime:        dayEnd,
		DailyDurations: durations,
		BlockCount:     len(blocks),
		ComputedAt:     computedAt,
	}
}

// fanOutUsers dispatches fn per user over a bounded worker pool. Failures
// are isolated per user; the return value is how many users failed.
// Cancellation stops dispatching new users but lets in-flight ones finish.
func fanOutUsers(ctx context.Context, users []string, fn func(ctx context.Context, userID string) error) int {
	sem := make(chan struct{}, constants.AggregateConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for _, userID := range users {
		if ctx.Err() != nil {
			util.LogWarnf("Aggregation cancelled, skipping remaining users: %v", ctx.Err())
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(ctx, userID); err != nil {
				util.LogErrorf("Aggregation failed for user %s: %v", userID, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(userID)
	}

	wg.Wait()
	return failed
}
