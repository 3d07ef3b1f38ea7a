package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuswatch/focuswatch/internal/core/model"
)

func TestBuildReport(t *testing.T) {
	log := &model.DailyLog{
		UserID: "u1",
		Date:   "2026-03-14",
		DailyDurations: map[model.Category]int64{
			model.CategoryGrowth:        3600,
			model.CategoryDailyLife:     1200,
			model.CategoryEntertainment: 1200,
		},
	}

	report := BuildReport(log)
	assert.Equal(t, "u1", report.UserID)
	assert.Equal(t, "2026-03-14", report.Date)
	assert.Equal(t, int64(6000), report.TotalSeconds)

	require.Len(t, report.Rows, len(model.TrackedCategories))
	assert.Equal(t, string(model.CategoryGrowth), report.Rows[0].Category)
	assert.Equal(t, int64(3600), report.Rows[0].Seconds)
	assert.InDelta(t, 0.6, report.Rows[0].Share, 1e-9)
	assert.InDelta(t, 0.2, report.Rows[1].Share, 1e-9)
	assert.InDelta(t, 0.2, report.Rows[2].Share, 1e-9)
}

func TestBuildReport_EmptyDay(t *testing.T) {
	report := BuildReport(&model.DailyLog{UserID: "u1", Date: "2026-03-14"})
	assert.Equal(t, int64(0), report.TotalSeconds)
	require.Len(t, report.Rows, len(model.TrackedCategories))
	for _, row := range report.Rows {
		assert.Equal(t, int64(0), row.Seconds)
		assert.Equal(t, 0.0, row.Share)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", formatDuration(0))
	assert.Equal(t, "45s", formatDuration(45))
	assert.Equal(t, "2m 5s", formatDuration(125))
	assert.Equal(t, "1h 0m 1s", formatDuration(3601))
	assert.Equal(t, "25h 0m 0s", formatDuration(90000))
}

func TestFormatShare(t *testing.T) {
	assert.Equal(t, "60.0%", formatShare(0.6))
	assert.Equal(t, "0.0%", formatShare(0))
	assert.Equal(t, "100.0%", formatShare(1))
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter("json"))
	assert.IsType(t, &CSVFormatter{}, NewFormatter("csv"))
	assert.IsType(t, &TableFormatter{}, NewFormatter("table"))
	assert.IsType(t, &TableFormatter{}, NewFormatter(""))
}
