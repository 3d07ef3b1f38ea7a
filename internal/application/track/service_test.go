package track

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuswatch/focuswatch/internal/core/model"
)

// recordingStore captures the calls EmitSession makes. Only the methods the
// track service touches do anything.
type recordingStore struct {
	sessions     []*model.Session
	addErr       error
	bumps        int
	triggerAfter int // bump count at which the counter reports triggered
}

func (r *recordingStore) AddSession(_ context.Context, s *model.Session) error {
	if r.addErr != nil {
		return r.addErr
	}
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *recordingStore) BumpClassifyCounter(_ context.Context, _ string) (bool, error) {
	r.bumps++
	return r.triggerAfter > 0 && r.bumps%r.triggerAfter == 0, nil
}

func (r *recordingStore) SetSessionCategory(context.Context, string, model.Category) error {
	return nil
}

func (r *recordingStore) SessionsOverlapping(context.Context, string, int64, int64) ([]model.Session, error) {
	return nil, nil
}

func (r *recordingStore) RecentSessionsByCategory(context.Context, string, model.Category, int) ([]model.Session, error) {
	return nil, nil
}

func (r *recordingStore) UpsertTimeBlock(context.Context, *model.TimeBlock) error { return nil }

func (r *recordingStore) TimeBlocksInRange(context.Context, string, int64, int64) ([]model.TimeBlock, error) {
	return nil, nil
}

func (r *recordingStore) DeleteTimeBlocks(context.Context, string, []string) error { return nil }

func (r *recordingStore) UpsertDailyLog(context.Context, *model.DailyLog) error { return nil }

func (r *recordingStore) GetDailyLog(context.Context, string, string) (*model.DailyLog, error) {
	return nil, nil
}

func (r *recordingStore) AddClassificationBatch(context.Context, *model.ClassificationBatch) error {
	return nil
}

func (r *recordingStore) ListUsers(context.Context) ([]string, error) { return nil, nil }

func (r *recordingStore) Close() error { return nil }

type fakeCategorizer struct {
	category model.Category
	err      error
}

func (f *fakeCategorizer) Categorize(_ context.Context, _ *model.Session) (model.Category, error) {
	return f.category, f.err
}

func TestRun_ReplayMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	// Two bursts separated by well over the gap threshold.
	require.NoError(t, os.WriteFile(path, []byte(
		`{"type":"click","timestamp":1000,"url":"https://a.com"}
{"type":"keydown","timestamp":3000,"url":"https://a.com"}
{"type":"click","timestamp":60000,"url":"https://b.com"}
`), 0o644))

	st := &recordingStore{}
	svc := NewService(Config{UserID: "u1", EventsPath: path}, st, nil, nil)

	require.NoError(t, svc.Run(context.Background()))

	require.Len(t, st.sessions, 2)
	assert.Equal(t, int64(1000), st.sessions[0].StartTime)
	assert.Equal(t, "a.com", st.sessions[0].Domain)
	assert.Equal(t, "b.com", st.sessions[1].Domain)
	// No categorizer: sessions persist uncategorized, counter untouched.
	assert.Empty(t, st.sessions[0].SummaryCategory)
	assert.Equal(t, 0, st.bumps)
}

func TestEmitSession_CategorizesAndBumpsOnGrowth(t *testing.T) {
	st := &recordingStore{}
	svc := NewService(Config{UserID: "u1"}, st, &fakeCategorizer{category: model.CategoryGrowth}, nil)

	sess := &model.Session{ID: "s1", UserID: "u1", StartTime: 0, EndTime: 5000}
	require.NoError(t, svc.EmitSession(context.Background(), sess))

	require.Len(t, st.sessions, 1)
	assert.Equal(t, model.CategoryGrowth, st.sessions[0].SummaryCategory)
	assert.Equal(t, 1, st.bumps)
}

func TestEmitSession_NonGrowthSkipsCounter(t *testing.T) {
	st := &recordingStore{}
	svc := NewService(Config{UserID: "u1"}, st, &fakeCategorizer{category: model.CategoryEntertainment}, nil)

	require.NoError(t, svc.EmitSession(context.Background(),
		&model.Session{ID: "s1", UserID: "u1", StartTime: 0, EndTime: 5000}))
	assert.Equal(t, 0, st.bumps)
}

func TestEmitSession_CategorizerFailureLeavesBlank(t *testing.T) {
	st := &recordingStore{}
	svc := NewService(Config{UserID: "u1"}, st, &fakeCategorizer{err: assert.AnError}, nil)

	require.NoError(t, svc.EmitSession(context.Background(),
		&model.Session{ID: "s1", UserID: "u1", StartTime: 0, EndTime: 5000}))

	require.Len(t, st.sessions, 1)
	assert.Empty(t, st.sessions[0].SummaryCategory)
	assert.Equal(t, 0, st.bumps)
}

func TestEmitSession_StoreFailurePropagates(t *testing.T) {
	st := &recordingStore{addErr: assert.AnError}
	svc := NewService(Config{UserID: "u1"}, st, nil, nil)

	err := svc.EmitSession(context.Background(),
		&model.Session{ID: "s1", UserID: "u1", StartTime: 0, EndTime: 5000})
	assert.Error(t, err)
}
