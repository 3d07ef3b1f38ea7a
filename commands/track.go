package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/focuswatch/focuswatch/internal/application/track"
	"github.com/focuswatch/focuswatch/internal/core/classify"
	"github.com/focuswatch/focuswatch/internal/util"
)

var (
	// Track command flags
	trackEventsPath     string
	trackUser           string
	trackFollow         bool
	trackGrouperCmd     string
	trackSummarizerCmd  string
	trackCategorizerCmd string
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Ingest browser activity events and record focus sessions",
	Long: `Reads activity events from a JSONL file (one {type, timestamp, url} object
per line), detects focus sessions from idle gaps, and persists them. With
--follow the file is tailed until interrupted.

Collaborator commands receive JSON on stdin and print their response; they
enable content categorization and the every-5th-Growth-session
classification pipeline.`,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringVar(&trackEventsPath, "events", "",
		"Activity event JSONL file (required)")
	trackCmd.Flags().StringVar(&trackUser, "user", "local",
		"User id to record sessions under")
	trackCmd.Flags().BoolVarP(&trackFollow, "follow", "f", false,
		"Tail the event file instead of replaying it once")

	trackCmd.Flags().StringVar(&trackGrouperCmd, "grouper-cmd", "",
		"External topic-grouping command")
	trackCmd.Flags().StringVar(&trackSummarizerCmd, "summarizer-cmd", "",
		"External group-summarization command")
	trackCmd.Flags().StringVar(&trackCategorizerCmd, "categorizer-cmd", "",
		"External content-categorization command")

	trackCmd.MarkFlagRequired("events")
}

func runTrack(cmd *cobra.Command, args []string) error {
	if err := initRuntime(); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var categorizer classify.Categorizer
	if trackCategorizerCmd != "" {
		categorizer = &classify.ExecCategorizer{
			CommandCollaborator: classify.CommandCollaborator{Command: trackCategorizerCmd},
		}
	}

	var pipeline *classify.Pipeline
	if trackGrouperCmd != "" && trackSummarizerCmd != "" {
		pipeline = classify.NewPipeline(st,
			&classify.ExecGrouper{CommandCollaborator: classify.CommandCollaborator{Command: trackGrouperCmd}},
			&classify.ExecSummarizer{CommandCollaborator: classify.CommandCollaborator{Command: trackSummarizerCmd}},
		)
	} else if trackGrouperCmd != "" || trackSummarizerCmd != "" {
		return fmt.Errorf("--grouper-cmd and --summarizer-cmd must be set together")
	}

	svc := track.NewService(track.Config{
		UserID:     trackUser,
		EventsPath: expandPath(trackEventsPath),
		Follow:     trackFollow,
	}, st, categorizer, pipeline)

	ctx := context.Background()
	if trackFollow {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		util.LogInfof("Tailing %s for user %s", trackEventsPath, trackUser)
	}

	return svc.Run(ctx)
}
