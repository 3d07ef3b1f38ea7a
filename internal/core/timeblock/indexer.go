package timeblock

import (
	"time"

	"github.com/focuswatch/focuswatch/internal/core/constants"
)

// Indexer maps instants onto the fixed 10-minute block grid of a logical day.
// A logical day starts at the configured day-start hour in the configured
// timezone and runs exactly 24 hours; any instant whose local hour is before
// the day-start hour belongs to the previous logical day.
//
// All methods are pure; instants are epoch milliseconds.
type Indexer struct {
	location     *time.Location
	dayStartHour int
}

// NewIndexer creates an Indexer anchored to the given timezone and day-start
// hour.
func NewIndexer(location *time.Location, dayStartHour int) *Indexer {
	if location == nil {
		location = time.Local
	}
	return &Indexer{location: location, dayStartHour: dayStartHour}
}

// DayStart returns the instant of dayStartHour:00:00.000 on instant's
// calendar date, shifted back one calendar day when the local hour is before
// the day-start hour.
func (ix *Indexer) DayStart(instantMs int64) int64 {
	local := time.UnixMilli(instantMs).In(ix.location)
	if local.Hour() < ix.dayStartHour {
		local = local.AddDate(0, 0, -1)
	}
	start := time.Date(local.Year(), local.Month(), local.Day(), ix.dayStartHour, 0, 0, 0, ix.location)
	return start.UnixMilli()
}

// DayDate returns the logical day's date string (yyyy-mm-dd) for an instant.
// This is the calendar date the logical day started on.
func (ix *Indexer) DayDate(instantMs int64) string {
	return time.UnixMilli(ix.DayStart(instantMs)).In(ix.location).Format("2006-01-02")
}

// BlockIndexOf returns the block index of an instant within its logical day,
// clamped to [0, BlocksPerDay-1]. Clamping only matters on DST-shortened or
// lengthened days where the 24h grid and the calendar disagree.
func (ix *Indexer) BlockIndexOf(instantMs int64) int {
	idx := int((instantMs - ix.DayStart(instantMs)) / constants.BlockMs)
	if idx < 0 {
		return 0
	}
	if idx >= constants.BlocksPerDay {
		return constants.BlocksPerDay - 1
	}
	return idx
}

// BlockRange returns the [start, end) instants of a block index within the
// logical day containing referenceMs. Round-trip invariant:
// BlockIndexOf(start) == blockIndex for all valid indices.
func (ix *Indexer) BlockRange(blockIndex int, referenceMs int64) (startMs, endMs int64) {
	startMs = ix.DayStart(referenceMs) + int64(blockIndex)*constants.BlockMs
	endMs = startMs + constants.BlockMs
	return startMs, endMs
}

// Location returns the indexer's timezone.
func (ix *Indexer) Location() *time.Location {
	return ix.location
}
