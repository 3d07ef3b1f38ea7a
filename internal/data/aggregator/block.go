package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/focuswatch/focuswatch/internal/core/constants"
	"github.com/focuswatch/focuswatch/internal/core/model"
	"github.com/focuswatch/focuswatch/internal/core/timeblock"
	"github.com/focuswatch/focuswatch/internal/data/store"
	"github.com/focuswatch/focuswatch/internal/util"
)

// ComputeBlockDurations intersects each session's [StartTime, EndTime) with
// [blockStartMs, blockEndMs) and accumulates overlap milliseconds per tracked
// category. Sessions with an untracked or missing category are ignored.
// Pure and idempotent: identical inputs always produce identical output.
func ComputeBlockDurations(blockStartMs, blockEndMs int64, sessions []model.Session) map[model.Category]int64 {
	durations := make(map[model.Category]int64, len(model.TrackedCategories))
	for _, cat := range model.TrackedCategories {
		durations[cat] = 0
	}

	for _, sess := range sessions {
		if !sess.SummaryCategory.IsTracked() {
			continue
		}
		overlap := min64(sess.EndTime, blockEndMs) - max64(sess.StartTime, blockStartMs)
		if overlap > 0 {
			durations[sess.SummaryCategory] += overlap
		}
	}
	return durations
}

// MajorCategory selects the category with the strictly largest duration,
// iterating TrackedCategories in declaration order so the first listed wins
// on an exact tie. All-zero durations yield CategoryNone.
func MajorCategory(durations map[model.Category]int64) model.Category {
	major := model.CategoryNone
	var best int64
	for _, cat := range model.TrackedCategories {
		if durations[cat] > best {
			best = durations[cat]
			major = cat
		}
	}
	return major
}

// ComputeBlock builds the full TimeBlock record for one block window.
func ComputeBlock(userID string, blockIndex int, blockStartMs, blockEndMs, computedAtMs int64, sessions []model.Session) *model.TimeBlock {
	durations := ComputeBlockDurations(blockStartMs, blockEndMs, sessions)
	return &model.TimeBlock{
		UserID:            userID,
		BlockIndex:        blockIndex,
		BlockStartTime:    blockStartMs,
		BlockEndTime:      blockEndMs,
		CategoryDurations: durations,
		MajorCategory:     MajorCategory(durations),
		ComputedAt:        computedAtMs,
	}
}

// BlockAggregator recomputes the block that elapsed at each scheduled tick
// for every known user. Recomputation overwrites the stored block, so replays
// and overlapping runs are safe.
type BlockAggregator struct {
	store   store.Store
	indexer *timeblock.Indexer
}

// NewBlockAggregator creates a BlockAggregator.
func NewBlockAggregator(st store.Store, indexer *timeblock.Indexer) *BlockAggregator {
	return &BlockAggregator{store: st, indexer: indexer}
}

// Run recomputes the block whose window ended at the invocation instant.
// The instant comes from the scheduler, not the wall clock, so backfills and
// replays are reproducible.
func (a *BlockAggregator) Run(ctx context.Context, at time.Time) error {
	// The block being closed is the one containing at-BlockMs.
	refMs := at.UnixMilli() - constants.BlockMs
	blockIndex := a.indexer.BlockIndexOf(refMs)
	blockStart, blockEnd := a.indexer.BlockRange(blockIndex, refMs)

	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		util.LogDebug("Block aggregation: no users, nothing to do")
		return nil
	}

	util.LogInfof("Block aggregation: block %d [%d, %d) for %d users",
		blockIndex, blockStart, blockEnd, len(users))

	failed := fanOutUsers(ctx, users, func(ctx context.Context, userID string) error {
		return a.aggregateUser(ctx, userID, blockIndex, blockStart, blockEnd, at.UnixMilli())
	})
	if failed > 0 {
		return fmt.Errorf("block aggregation failed for %d of %d users", failed, len(users))
	}
	return nil
}

func (a *BlockAggregator) aggregateUser(ctx context.Context, userID string, blockIndex int, blockStart, blockEnd, computedAt int64) error {
	sessions, err := a.store.SessionsOverlapping(ctx, userID, blockStart, blockEnd)
	if err != nil {
		return fmt.Errorf("fetch sessions for %s: %w", userID, err)
	}

	block := ComputeBlock(userID, blockIndex, blockStart, blockEnd, computedAt, sessions)
	if err := a.store.UpsertTimeBlock(ctx, block); err != nil {
		return fmt.Errorf("upsert block for %s: %w", userID, err)
	}

	util.LogDebugf("Block %d for %s: major=%s durations=%v",
		blockIndex, userID, block.MajorCategory, block.CategoryDurations)
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
