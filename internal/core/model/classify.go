package model

// ClassificationGroup is one semantic cluster of sessions produced by a
// pipeline run. Groups are ephemeral per run; the run's top-N are persisted
// together as one batch.
type ClassificationGroup struct {
	SessionIDs    []string `json:"sessionIds"`
	Topic         string   `json:"topic"`
	SummaryPoints []string `json:"summaryPoints"` // 3..5 entries
	Keywords      []string `json:"keywords"`      // <=10 entries
	TotalDuration int64    `json:"totalDuration"` // seconds
}

// ClassificationBatch is the persisted artifact of one pipeline run. ID is
// timestamp-prefixed so batches sort lexicographically by creation time.
type ClassificationBatch struct {
	ID        string                `json:"id"`
	UserID    string                `json:"userId"`
	CreatedAt int64                 `json:"createdAt"`
	Groups    []ClassificationGroup `json:"groups"`
}
