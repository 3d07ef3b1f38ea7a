package formatter

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

type TableFormatter struct {
	headers []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		headers: []string{"Category", "Duration", "Share"},
	}
}

func (f *TableFormatter) Format(report *Report) error {
	fmt.Printf("Daily activity for %s on %s\n", report.UserID, report.Date)

	widths := f.calculateColumnWidths(report)

	f.printBorder(widths, "top")
	f.printRow(f.headers, widths, "header")
	f.printBorder(widths, "middle")

	for _, row := range report.Rows {
		f.printRow([]string{
			row.Category,
			formatDuration(row.Seconds),
			formatShare(row.Share),
		}, widths, "data")
	}

	f.printBorder(widths, "middle")
	f.printRow([]string{"Total", formatDuration(report.TotalSeconds), ""}, widths, "data")
	f.printBorder(widths, "bottom")

	return nil
}

// calculateColumnWidths determines the width for each column based on content
func (f *TableFormatter) calculateColumnWidths(report *Report) []int {
	widths := make([]int, len(f.headers))
	for i, header := range f.headers {
		widths[i] = runewidth.StringWidth(header)
	}

	rows := append([][]string{}, []string{"Total", formatDuration(report.TotalSeconds), ""})
	for _, row := range report.Rows {
		rows = append(rows, []string{
			row.Category,
			formatDuration(row.Seconds),
			formatShare(row.Share),
		})
	}

	for _, values := range rows {
		for i, value := range values {
			if w := runewidth.StringWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}

	// Minimum widths for readability
	for i := range widths {
		if widths[i] < 8 {
			widths[i] = 8
		}
	}
	return widths
}

// printBorder prints table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right, separator string

	switch borderType {
	case "top":
		left, middle, right, separator = "┌", "┬", "┐", "─"
	case "middle":
		left, middle, right, separator = "├", "┼", "┤", "─"
	case "bottom":
		left, middle, right, separator = "└", "┴", "┘", "─"
	}

	fmt.Print(left)
	for i, width := range widths {
		fmt.Print(strings.Repeat(separator, width+2))
		if i < len(widths)-1 {
			fmt.Print(middle)
		}
	}
	fmt.Println(right)
}

// printRow prints a data row; the category column is left-aligned, numeric
// columns right-aligned.
func (f *TableFormatter) printRow(values []string, widths []int, rowType string) {
	fmt.Print("│")
	for i, value := range values {
		pad := widths[i] - runewidth.StringWidth(value)
		if i == 0 {
			fmt.Printf(" %s%s │", value, strings.Repeat(" ", pad))
		} else {
			fmt.Printf(" %s%s │", strings.Repeat(" ", pad), value)
		}
	}
	fmt.Println()
}

func formatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func formatShare(share float64) string {
	return fmt.Sprintf("%.1f%%", share*100)
}
