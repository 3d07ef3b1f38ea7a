package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/focuswatch/focuswatch/internal/core/classify"
)

var (
	classifyUser          string
	classifyGrouperCmd    string
	classifySummarizerCmd string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Run the topic classification pipeline for one user",
	Long: `Groups the user's most recent Growth sessions via the external grouper,
summarizes each group via the external summarizer, and persists the top
groups ranked by total duration.`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&classifyUser, "user", "local",
		"User id to classify")
	classifyCmd.Flags().StringVar(&classifyGrouperCmd, "grouper-cmd", "",
		"External topic-grouping command (required)")
	classifyCmd.Flags().StringVar(&classifySummarizerCmd, "summarizer-cmd", "",
		"External group-summarization command (required)")

	classifyCmd.MarkFlagRequired("grouper-cmd")
	classifyCmd.MarkFlagRequired("summarizer-cmd")
}

func runClassify(cmd *cobra.Command, args []string) error {
	if err := initRuntime(); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	pipeline := classify.NewPipeline(st,
		&classify.ExecGrouper{CommandCollaborator: classify.CommandCollaborator{Command: classifyGrouperCmd}},
		&classify.ExecSummarizer{CommandCollaborator: classify.CommandCollaborator{Command: classifySummarizerCmd}},
	)
	return pipeline.Run(context.Background(), classifyUser, time.Now())
}
