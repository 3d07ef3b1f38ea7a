package store

import "database/sql"

// migrateV001 creates the initial schema: sessions, time blocks, daily logs,
// classification batches, and the per-user classification trigger counters.
// Every statement uses IF NOT EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			start_time       INTEGER NOT NULL,
			end_time         INTEGER NOT NULL,
			duration         INTEGER NOT NULL,
			session_type     TEXT NOT NULL,
			url              TEXT NOT NULL DEFAULT '',
			domain           TEXT NOT NULL DEFAULT '',
			title            TEXT NOT NULL DEFAULT '',
			event_count      TEXT NOT NULL DEFAULT '{}',
			summary_category TEXT NOT NULL DEFAULT '',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS time_blocks (
			user_id            TEXT NOT NULL,
			doc_id             TEXT NOT NULL,
			block_index        INTEGER NOT NULL,
			block_start        INTEGER NOT NULL,
			block_end          INTEGER NOT NULL,
			category_durations TEXT NOT NULL DEFAULT '{}',
			major_category     TEXT NOT NULL DEFAULT 'NA',
			computed_at        INTEGER NOT NULL,
			PRIMARY KEY (user_id, doc_id)
		)`,

		`CREATE TABLE IF NOT EXISTS daily_logs (
			user_id         TEXT NOT NULL,
			date            TEXT NOT NULL,
			start_time      INTEGER NOT NULL,
			end_time        INTEGER NOT NULL,
			daily_durations TEXT NOT NULL DEFAULT '{}',
			block_count     INTEGER NOT NULL DEFAULT 0,
			computed_at     INTEGER NOT NULL,
			PRIMARY KEY (user_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS classification_batches (
			user_id    TEXT NOT NULL,
			id         TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			groups     TEXT NOT NULL DEFAULT '[]',
			PRIMARY KEY (user_id, id)
		)`,

		`CREATE TABLE IF NOT EXISTS classify_counters (
			user_id TEXT PRIMARY KEY,
			count   INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_user_time
			ON sessions(user_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_category
			ON sessions(user_id, summary_category, start_time DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_user_start
			ON time_blocks(user_id, block_start)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_user_created
			ON classification_batches(user_id, id DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
