package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"

	"github.com/focuswatch/focuswatch/internal/core/constants"
	"github.com/focuswatch/focuswatch/internal/core/model"
)

// Store defines the persistence operations the tracker core needs: append
// sessions, merge-upsert blocks and daily logs, range queries on timestamp
// fields, and batched deletes.
type Store interface {
	AddSession(ctx context.Context, session *model.Session) error
	SetSessionCategory(ctx context.Context, sessionID string, category model.Category) error
	SessionsOverlapping(ctx context.Context, userID string, startMs, endMs int64) ([]model.Session, error)
	RecentSessionsByCategory(ctx context.Context, userID string, category model.Category, limit int) ([]model.Session, error)

	UpsertTimeBlock(ctx context.Context, block *model.TimeBlock) error
	TimeBlocksInRange(ctx context.Context, userID string, startMs, endMs int64) ([]model.TimeBlock, error)
	DeleteTimeBlocks(ctx context.Context, userID string, docIDs []string) error

	UpsertDailyLog(ctx context.Context, log *model.DailyLog) error
	GetDailyLog(ctx context.Context, userID, date string) (*model.DailyLog, error)

	AddClassificationBatch(ctx context.Context, batch *model.ClassificationBatch) error
	BumpClassifyCounter(ctx context.Context, userID string) (bool, error)

	ListUsers(ctx context.Context) ([]string, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements for the hot write paths
	insertSession *sql.Stmt
	upsertBlock   *sql.Stmt
}

// Open opens (creating if needed) and migrates a SQLite store at path.
// A failure here is fatal to the caller: the core must not run against a
// half-initialized backend.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := NewMigrationRunner(db).Run(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	store, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore creates a SQLiteStore from an already-opened and migrated
// database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	var err error
	s.insertSession, err = db.Prepare(`
		INSERT INTO sessions (id, user_id, start_time, end_time, duration,
			session_type, url, domain, title, event_count, summary_category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert session: %w", err)
	}

	s.upsertBlock, err = db.Prepare(`
		INSERT INTO time_blocks (user_id, doc_id, block_index, block_start,
			block_end, category_durations, major_category, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, doc_id) DO UPDATE SET
			block_index        = excluded.block_index,
			block_start        = excluded.block_start,
			block_end          = excluded.block_end,
			category_durations = excluded.category_durations,
			major_category     = excluded.major_category,
			computed_at        = excluded.computed_at
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare upsert block: %w", err)
	}

	return s, nil
}

// Close releases prepared statements and the database handle.
func (s *SQLiteStore) Close() error {
	s.insertSession.Close()
	s.upsertBlock.Close()
	return s.db.Close()
}

// AddSession appends one finalized session.
func (s *SQLiteStore) AddSession(ctx context.Context, session *model.Session) error {
	if session.EndTime <= session.StartTime {
		return fmt.Errorf("session %s: endTime %d not after startTime %d",
			session.ID, session.EndTime, session.StartTime)
	}

	counts, err := sonic.Marshal(session.EventCount)
	if err != nil {
		return fmt.Errorf("encode event counts: %w", err)
	}

	_, err = s.insertSession.ExecContext(ctx,
		session.ID, session.UserID, session.StartTime, session.EndTime,
		session.Duration, string(session.SessionType), session.URL,
		session.Domain, session.Title, string(counts),
		string(session.SummaryCategory))
	if err != nil {
		return fmt.Errorf("insert session %s: %w", session.ID, err)
	}
	return nil
}

// SetSessionCategory records the externally assigned content category.
func (s *SQLiteStore) SetSessionCategory(ctx context.Context, sessionID string, category model.Category) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET summary_category = ? WHERE id = ?",
		string(category), sessionID)
	if err != nil {
		return fmt.Errorf("set category for session %s: %w", sessionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set category: session %s not found", sessionID)
	}
	return nil
}

const sessionColumns = `id, user_id, start_time, end_time, duration,
	session_type, url, domain, title, event_count, summary_category`

// SessionsOverlapping returns sessions whose [start_time, end_time) range
// intersects [startMs, endMs), ordered by start time ascending.
func (s *SQLiteStore) SessionsOverlapping(ctx context.Context, userID string, startMs, endMs int64) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time ASC
	`, userID, endMs, startMs)
	if err != nil {
		return nil, fmt.Errorf("query overlapping sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// RecentSessionsByCategory returns the newest sessions in a category,
// newest-first. An empty result is legitimate, not an error.
func (s *SQLiteStore) RecentSessionsByCategory(ctx context.Context, userID string, category model.Category, limit int) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = ? AND summary_category = ?
		ORDER BY start_time DESC
		LIMIT ?
	`, userID, string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions by category: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]model.Session, error) {
	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		var sessionType, category, counts string
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.StartTime,
			&sess.EndTime, &sess.Duration, &sessionType, &sess.URL,
			&sess.Domain, &sess.Title, &counts, &category); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.SessionType = model.SessionType(sessionType)
		sess.SummaryCategory = model.Category(category)
		if counts != "" && counts != "{}" {
			if err := sonic.UnmarshalString(counts, &sess.EventCount); err != nil {
				return nil, fmt.Errorf("decode event counts for %s: %w", sess.ID, err)
			}
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpsertTimeBlock overwrites the block record for its (user, doc id) key.
// Recomputation is idempotent, so replays are safe.
func (s *SQLiteStore) UpsertTimeBlock(ctx context.Context, block *model.TimeBlock) error {
	durations, err := sonic.Marshal(block.CategoryDurations)
	if err != nil {
		return fmt.Errorf("encode category durations: %w", err)
	}

	docID := blockDocID(block)
	_, err = s.upsertBlock.ExecContext(ctx,
		block.UserID, docID, block.BlockIndex, block.BlockStartTime,
		block.BlockEndTime, string(durations), string(block.MajorCategory),
		block.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert block %s/%s: %w", block.UserID, docID, err)
	}
	return nil
}

// blockDocID derives the composite document id from the block's start
// instant. The id is a key only; range filtering always uses block_start.
func blockDocID(block *model.TimeBlock) string {
	t := time.UnixMilli(block.BlockStartTime)
	return model.BlockDocID(t.UTC().Format("2006-01-02"), t.UTC().Hour(), t.UTC().Minute())
}

// TimeBlocksInRange returns blocks whose block_start falls in [startMs,
// endMs), ordered by block_start ascending.
func (s *SQLiteStore) TimeBlocksInRange(ctx context.Context, userID string, startMs, endMs int64) ([]model.TimeBlock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, block_index, block_start, block_end,
			category_durations, major_category, computed_at
		FROM time_blocks
		WHERE user_id = ? AND block_start >= ? AND block_start < ?
		ORDER BY block_start ASC
	`, userID, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("query blocks in range: %w", err)
	}
	defer rows.Close()

	var blocks []model.TimeBlock
	for rows.Next() {
		var b model.TimeBlock
		var durations, major string
		if err := rows.Scan(&b.UserID, &b.BlockIndex, &b.BlockStartTime,
			&b.BlockEndTime, &durations, &major, &b.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		b.MajorCategory = model.Category(major)
		if err := sonic.UnmarshalString(durations, &b.CategoryDurations); err != nil {
			return nil, fmt.Errorf("decode category durations: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// DeleteTimeBlocks removes the given block documents in one transaction.
// Callers chunk the id list to respect the write-batch ceiling.
func (s *SQLiteStore) DeleteTimeBlocks(ctx context.Context, userID string, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}
	if len(docIDs) > constants.MaxDeleteBatch {
		return fmt.Errorf("delete batch of %d exceeds limit %d", len(docIDs), constants.MaxDeleteBatch)
	}

	placeholders := strings.Repeat("?,", len(docIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]interface{}, 0, len(docIDs)+1)
	args = append(args, userID)
	for _, id := range docIDs {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM time_blocks WHERE user_id = ? AND doc_id IN ("+placeholders+")",
		args...)
	if err != nil {
		return fmt.Errorf("delete %d blocks for %s: %w", len(docIDs), userID, err)
	}
	return nil
}

// BlockDocIDFor exposes the composite id derivation so the daily rollup can
// address the blocks it consumed.
func BlockDocIDFor(block *model.TimeBlock) string {
	return blockDocID(block)
}

// UpsertDailyLog overwrites the rollup for (user, date).
func (s *SQLiteStore) UpsertDailyLog(ctx context.Context, log *model.DailyLog) error {
	durations, err := sonic.Marshal(log.DailyDurations)
	if err != nil {
		return fmt.Errorf("encode daily durations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO daily_logs (user_id, date, start_time, end_time,
			daily_durations, block_count, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			start_time      = excluded.start_time,
			end_time        = excluded.end_time,
			daily_durations = excluded.daily_durations,
			block_count     = excluded.block_count,
			computed_at     = excluded.computed_at
	`, log.UserID, log.Date, log.StartTime, log.EndTime, string(durations),
		log.BlockCount, log.ComputedAt)
	if err != nil {
		return fmt.Errorf("upsert daily log %s/%s: %w", log.UserID, log.Date, err)
	}
	return nil
}

// GetDailyLog returns the rollup for (user, date), or (nil, nil) when absent.
func (s *SQLiteStore) GetDailyLog(ctx context.Context, userID, date string) (*model.DailyLog, error) {
	var log model.DailyLog
	var durations string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, date, start_time, end_time, daily_durations,
			block_count, computed_at
		FROM daily_logs
		WHERE user_id = ? AND date = ?
	`, userID, date).Scan(&log.UserID, &log.Date, &log.StartTime,
		&log.EndTime, &durations, &log.BlockCount, &log.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily log %s/%s: %w", userID, date, err)
	}

	if err := sonic.UnmarshalString(durations, &log.DailyDurations); err != nil {
		return nil, fmt.Errorf("decode daily durations: %w", err)
	}
	return &log, nil
}

// AddClassificationBatch persists one pipeline run's kept groups as a single
// document.
func (s *SQLiteStore) AddClassificationBatch(ctx context.Context, batch *model.ClassificationBatch) error {
	groups, err := sonic.Marshal(batch.Groups)
	if err != nil {
		return fmt.Errorf("encode classification groups: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classification_batches (user_id, id, created_at, groups)
		VALUES (?, ?, ?, ?)
	`, batch.UserID, batch.ID, batch.CreatedAt, string(groups))
	if err != nil {
		return fmt.Errorf("insert classification batch %s: %w", batch.ID, err)
	}
	return nil
}

// BumpClassifyCounter is the single atomic read-modify-write behind the
// every-Nth-session trigger. It returns true when the counter reached the
// trigger count and was reset; concurrent callers serialize on the
// transaction, so two qualifying sessions can neither double-trigger nor
// lose an increment.
func (s *SQLiteStore) BumpClassifyCounter(ctx context.Context, userID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin counter transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO classify_counters (user_id, count) VALUES (?, 0)
		ON CONFLICT(user_id) DO NOTHING
	`, userID); err != nil {
		return false, fmt.Errorf("ensure counter row: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT count FROM classify_counters WHERE user_id = ?", userID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("read counter: %w", err)
	}

	count++
	triggered := count >= constants.ClassifyTriggerCount
	if triggered {
		count = 0
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE classify_counters SET count = ? WHERE user_id = ?",
		count, userID); err != nil {
		return false, fmt.Errorf("write counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit counter: %w", err)
	}
	return triggered, nil
}

// ListUsers returns every user id that has recorded at least one session.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM sessions ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
