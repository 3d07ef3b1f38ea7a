package formatter

import (
	"encoding/csv"
	"fmt"
	"os"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(report *Report) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"Date", "User", "Category", "Seconds", "Share"}); err != nil {
		return err
	}

	for _, row := range report.Rows {
		record := []string{
			report.Date,
			report.UserID,
			row.Category,
			fmt.Sprintf("%d", row.Seconds),
			fmt.Sprintf("%.3f", row.Share),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	return nil
}
