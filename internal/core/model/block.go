package model

import "fmt"

// TimeBlock is the per-block aggregation result. CategoryDurations holds
// overlap milliseconds per tracked category. Blocks are recomputed
// idempotently and overwritten on each recomputation.
type TimeBlock struct {
	UserID     string `json:"userId"`
	BlockIndex int    `json:"blockIndex"` // [0, BlocksPerDay)
	// BlockStartTime/BlockEndTime are epoch ms anchored to the day-start hour.
	BlockStartTime int64 `json:"blockStartTime"`
	BlockEndTime   int64 `json:"blockEndTime"`

	CategoryDurations map[Category]int64 `json:"categoryDurations"` // ms
	MajorCategory     Category           `json:"majorCategory"`

	// ComputedAt records when the block was (re)computed. The daily rollup
	// filters on BlockStartTime, never on the document id.
	ComputedAt int64 `json:"computedAt"`
}

// BlockDocID encodes the block's calendar date and start time-of-day, e.g.
// "2026-03-14-0510". Used only as a store key; time-range queries go through
// BlockStartTime.
func BlockDocID(date string, hour, minute int) string {
	return fmt.Sprintf("%s-%02d%02d", date, hour, minute)
}

// DailyLog is one logical day's rollup for one user, keyed by the day's date
// string (yyyy-mm-dd in the target timezone). DailyDurations holds whole
// seconds per category.
type DailyLog struct {
	UserID string `json:"userId"`
	Date   string `json:"date"`
	// StartTime/EndTime bound the logical day: [dayStart-24h, dayStart).
	StartTime int64 `json:"startTime"`
	EndTime   int64 `json:"endTime"`

	DailyDurations map[Category]int64 `json:"dailyDurations"` // seconds
	BlockCount     int                `json:"blockCount"`
	ComputedAt     int64              `json:"computedAt"`
}
