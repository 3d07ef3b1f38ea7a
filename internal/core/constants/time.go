package constants

import "time"

const (
	// Activity gap detection
	GapThreshold   = 5 * time.Second
	GapThresholdMs = int64(5000)
	GapCheckPeriod = 5 * time.Second

	// Minimum session span to count as active
	ActiveSessionThreshold   = 15 * time.Second
	ActiveSessionThresholdMs = int64(15000)

	// Time block geometry
	BlockMinutes  = 10
	BlockMs       = int64(BlockMinutes * 60 * 1000)
	BlocksPerDay  = (24 * 60) / BlockMinutes
	BlockInterval = time.Duration(BlockMinutes) * time.Minute

	// Logical days run 05:00 to 05:00
	DayStartHour = 5

	// Backend write-batch ceiling for block deletion
	MaxDeleteBatch = 500

	// Classification pipeline
	ClassifyTriggerCount  = 5
	ClassifyInputSessions = 5
	ClassifyTopGroups     = 6
	ClassifyTimeout       = 30 * time.Second

	// Per-user fan-out bound for aggregation sweeps
	AggregateConcurrency = 8
)
