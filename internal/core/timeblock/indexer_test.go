package timeblock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuswatch/focuswatch/internal/core/constants"
)

func utcIndexer(t *testing.T) *Indexer {
	t.Helper()
	return NewIndexer(time.UTC, constants.DayStartHour)
}

func TestDayStart_AfterDayStartHour(t *testing.T) {
	ix := utcIndexer(t)

	// 2026-03-14 09:30 UTC belongs to the logical day starting 05:00 that day.
	instant := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	want := time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC)

	assert.Equal(t, want.UnixMilli(), ix.DayStart(instant.UnixMilli()))
	assert.Equal(t, "2026-03-14", ix.DayDate(instant.UnixMilli()))
}

func TestDayStart_BeforeDayStartHour(t *testing.T) {
	ix := utcIndexer(t)

	// 02:00 is before the 05:00 cutover, so it belongs to the previous
	// logical day.
	instant := time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 13, 5, 0, 0, 0, time.UTC)

	assert.Equal(t, want.UnixMilli(), ix.DayStart(instant.UnixMilli()))
	assert.Equal(t, "2026-03-13", ix.DayDate(instant.UnixMilli()))
}

func TestDayStart_ExactlyAtDayStartHour(t *testing.T) {
	ix := utcIndexer(t)

	instant := time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, instant.UnixMilli(), ix.DayStart(instant.UnixMilli()))
}

func TestBlockIndexOf_GridPositions(t *testing.T) {
	ix := utcIndexer(t)
	dayStart := time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC).UnixMilli()

	assert.Equal(t, 0, ix.BlockIndexOf(dayStart))
	assert.Equal(t, 0, ix.BlockIndexOf(dayStart+constants.BlockMs-1))
	assert.Equal(t, 1, ix.BlockIndexOf(dayStart+constants.BlockMs))
	assert.Equal(t, 6, ix.BlockIndexOf(dayStart+int64(time.Hour.Milliseconds())))
	assert.Equal(t, constants.BlocksPerDay-1,
		ix.BlockIndexOf(dayStart+24*time.Hour.Milliseconds()-1))
}

func TestBlockRange_RoundTrip(t *testing.T) {
	ix := utcIndexer(t)
	reference := time.Date(2026, 3, 14, 12, 34, 56, 0, time.UTC).UnixMilli()

	for i := 0; i < constants.BlocksPerDay; i++ {
		start, end := ix.BlockRange(i, reference)
		require.Equal(t, constants.BlockMs, end-start, "block %d width", i)
		require.Equal(t, i, ix.BlockIndexOf(start), "block %d round trip", i)
	}
}

func TestBlockRange_BeforeDayStartSameLogicalDay(t *testing.T) {
	ix := utcIndexer(t)

	// Block 143 of the day starting 2026-03-13 05:00 covers 04:50-05:00 on
	// the 14th calendar day.
	reference := time.Date(2026, 3, 14, 3, 0, 0, 0, time.UTC).UnixMilli()
	start, end := ix.BlockRange(constants.BlocksPerDay-1, reference)

	assert.Equal(t, time.Date(2026, 3, 14, 4, 50, 0, 0, time.UTC).UnixMilli(), start)
	assert.Equal(t, time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC).UnixMilli(), end)
}

func TestIndexer_TimezoneAnchor(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	ix := NewIndexer(shanghai, constants.DayStartHour)

	// 05:00 Shanghai is 21:00 UTC the previous calendar day.
	instant := time.Date(2026, 3, 14, 8, 0, 0, 0, shanghai)
	want := time.Date(2026, 3, 14, 5, 0, 0, 0, shanghai)

	assert.Equal(t, want.UnixMilli(), ix.DayStart(instant.UnixMilli()))
	assert.Equal(t, "2026-03-14", ix.DayDate(instant.UnixMilli()))
}

func TestBlockIndexOf_Clamped(t *testing.T) {
	ix := utcIndexer(t)
	dayStart := time.Date(2026, 3, 14, 5, 0, 0, 0, time.UTC).UnixMilli()

	// Inputs outside the grid clamp instead of escaping the valid range.
	assert.GreaterOrEqual(t, ix.BlockIndexOf(dayStart-1), 0)
	assert.Less(t, ix.BlockIndexOf(dayStart+25*time.Hour.Milliseconds()), constants.BlocksPerDay)
}
