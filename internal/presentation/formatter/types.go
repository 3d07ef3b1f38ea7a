package formatter

import "github.com/focuswatch/focuswatch/internal/core/model"

// Report is one user's daily rollup prepared for rendering.
type Report struct {
	UserID       string      `json:"userId"`
	Date         string      `json:"date"`
	Rows         []ReportRow `json:"rows"`
	TotalSeconds int64       `json:"totalSeconds"`
}

// ReportRow is one category's share of the day.
type ReportRow struct {
	Category string  `json:"category"`
	Seconds  int64   `json:"seconds"`
	Share    float64 `json:"share"` // fraction of the day's tracked time
}

// Formatter renders a report to stdout.
type Formatter interface {
	Format(report *Report) error
}

// NewFormatter returns the formatter for an output format name.
func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return NewJSONFormatter()
	case "csv":
		return NewCSVFormatter()
	default:
		return NewTableFormatter()
	}
}

// BuildReport converts a stored DailyLog into display rows, in the fixed
// category order.
func BuildReport(log *model.DailyLog) *Report {
	report := &Report{
		UserID: log.UserID,
		Date:   log.Date,
	}
	for _, cat := range model.TrackedCategories {
		report.TotalSeconds += log.DailyDurations[cat]
	}
	for _, cat := range model.TrackedCategories {
		seconds := log.DailyDurations[cat]
		share := 0.0
		if report.TotalSeconds > 0 {
			share = float64(seconds) / float64(report.TotalSeconds)
		}
		report.Rows = append(report.Rows, ReportRow{
			Category: string(cat),
			Seconds:  seconds,
			Share:    share,
		})
	}
	return report
}
