package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/focuswatch/focuswatch/internal/core/constants"
	"github.com/focuswatch/focuswatch/internal/core/timeblock"
	"github.com/focuswatch/focuswatch/internal/data/store"
	"github.com/focuswatch/focuswatch/internal/util"
)

var (
	// Logging related
	debug bool

	// Storage and time configuration
	dbPath       string
	timezone     string
	dayStartHour int

	rootCmd = &cobra.Command{
		Use:   "focuswatch",
		Short: "Browser activity tracking and aggregation tool",
		Long: `focuswatch turns a raw stream of browser input events into focus sessions,
aggregates them into 10-minute blocks and daily logs, and clusters Growth
sessions into summarized topic groups.

Examples:
  focuswatch track --events events.jsonl --user alice     # Replay an event file
  focuswatch track --events events.jsonl --follow         # Tail a live event file
  focuswatch aggregate blocks --at 2026-03-14T09:10:00Z   # Close the elapsed block
  focuswatch aggregate daily --at 2026-03-15T05:00:00Z    # Close the elapsed day
  focuswatch report --date 2026-03-14 --user alice        # Render a daily rollup`,
	}
)

const (
	defaultLogFile = "~/.focuswatch/logs/app.log"
	defaultDBPath  = "~/.focuswatch/focuswatch.db"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath,
		"SQLite database path")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local",
		"Timezone setting (e.g., Asia/Shanghai, UTC)")
	rootCmd.PersistentFlags().IntVar(&dayStartHour, "day-start-hour", constants.DayStartHour,
		"Hour the logical day starts at (0-23)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

func Execute() error {
	return rootCmd.Execute()
}

// initRuntime sets up logging and the global time provider. Called by every
// subcommand before touching the store.
func initRuntime() error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return err
	}
	util.InitLogger(logLevel, logFile, debug)

	return util.InitializeTimeProvider(timezone)
}

// openStore opens and migrates the SQLite store. A failure here is fatal;
// nothing runs against a half-initialized backend.
func openStore() (*store.SQLiteStore, error) {
	path := expandPath(dbPath)
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return store.Open(path)
}

// newIndexer builds the block indexer from the configured timezone and
// day-start hour.
func newIndexer() *timeblock.Indexer {
	return timeblock.NewIndexer(util.GetTimeProvider().Location(), dayStartHour)
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
