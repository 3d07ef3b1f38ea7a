package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/focuswatch/focuswatch/internal/presentation/formatter"
	"github.com/focuswatch/focuswatch/internal/util"
)

var (
	reportDate   string
	reportUser   string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a stored daily rollup",
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDate, "date", "",
		"Logical day date (yyyy-mm-dd); defaults to the current logical day")
	reportCmd.Flags().StringVar(&reportUser, "user", "local",
		"User id to report on")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "table",
		"Output format (table, json, csv)")
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := initRuntime(); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	date := reportDate
	if date == "" {
		indexer := newIndexer()
		date = indexer.DayDate(util.GetTimeProvider().Now().UnixMilli())
	}

	log, err := st.GetDailyLog(context.Background(), reportUser, date)
	if err != nil {
		return err
	}
	if log == nil {
		return fmt.Errorf("no daily log for %s on %s", reportUser, date)
	}

	return formatter.NewFormatter(reportOutput).Format(formatter.BuildReport(log))
}
