package classify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/focuswatch/focuswatch/internal/core/constants"
	"github.com/focuswatch/focuswatch/internal/core/model"
	"github.com/focuswatch/focuswatch/internal/util"
)

// GroupingItem is one tuple in a topic-grouping request.
type GroupingItem struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	Duration int64  `json:"duration"`
}

// SummaryItem is one session's detail in a group-summarization request.
type SummaryItem struct {
	Topic     string   `json:"topic"`
	KeyPoints []string `json:"keyPoints"`
	Duration  int64    `json:"duration"`
}

// GroupSummary is the validated shape of a summarizer response.
type GroupSummary struct {
	Topic         string   `json:"topic"`
	SummaryPoints []string `json:"summaryPoints"`
	Keywords      []string `json:"keywords"`
}

// Grouper partitions session ids into topic clusters. The response is raw
// untrusted text; the pipeline extracts and validates the JSON itself.
type Grouper interface {
	GroupTopics(ctx context.Context, items []GroupingItem) (string, error)
}

// Summarizer condenses one group of sessions. Same untrusted-text contract
// as Grouper.
type Summarizer interface {
	SummarizeGroup(ctx context.Context, items []SummaryItem) (string, error)
}

// BatchStore is the slice of persistence the pipeline needs.
type BatchStore interface {
	RecentSessionsByCategory(ctx context.Context, userID string, category model.Category, limit int) ([]model.Session, error)
	AddClassificationBatch(ctx context.Context, batch *model.ClassificationBatch) error
}

// Pipeline orchestrates the external grouper and summarizer over a cohort of
// recent Growth sessions: group, summarize per group, rank by total
// duration, keep the top N, persist as one batch.
type Pipeline struct {
	store      BatchStore
	grouper    Grouper
	summarizer Summarizer
	category   model.Category
	timeout    time.Duration
}

// NewPipeline creates a Pipeline over the default Growth category.
func NewPipeline(store BatchStore, grouper Grouper, summarizer Summarizer) *Pipeline {
	return &Pipeline{
		store:      store,
		grouper:    grouper,
		summarizer: summarizer,
		category:   model.CategoryGrowth,
		timeout:    constants.ClassifyTimeout,
	}
}

// Run executes one classification pass for a user. An empty cohort is a
// no-op, a malformed grouping response fails the run, and a failed group
// summarization drops only that group.
func (p *Pipeline) Run(ctx context.Context, userID string, at time.Time) error {
	sessions, err := p.store.RecentSessionsByCategory(ctx, userID, p.category, constants.ClassifyInputSessions)
	if err != nil {
		return fmt.Errorf("fetch %s sessions: %w", p.category, err)
	}
	if len(sessions) == 0 {
		util.LogDebugf("Classification for %s: no %s sessions, skipping", userID, p.category)
		return nil
	}

	byID := make(map[string]model.Session, len(sessions))
	items := make([]GroupingItem, len(sessions))
	for i, sess := range sessions {
		byID[sess.ID] = sess
		items[i] = GroupingItem{ID: sess.ID, Topic: topicOf(sess), Duration: sess.Duration}
	}

	groups, err := p.group(ctx, items, byID)
	if err != nil {
		// Without a valid partition there is nothing to summarize.
		return fmt.Errorf("group %d sessions for %s: %w", len(sessions), userID, err)
	}

	result := make([]model.ClassificationGroup, 0, len(groups))
	for i, ids := range groups {
		group, err := p.summarize(ctx, ids, byID)
		if err != nil {
			util.LogWarnf("Summarization failed for group %d/%d of %s, dropping: %v",
				i+1, len(groups), userID, err)
			continue
		}
		result = append(result, *group)
	}

	// Rank by total duration; stable sort keeps grouper order on ties.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalDuration > result[j].TotalDuration
	})
	if len(result) > constants.ClassifyTopGroups {
		result = result[:constants.ClassifyTopGroups]
	}

	batch := &model.ClassificationBatch{
		ID:        batchID(at),
		UserID:    userID,
		CreatedAt: at.UnixMilli(),
		Groups:    result,
	}
	if err := p.store.AddClassificationBatch(ctx, batch); err != nil {
		return fmt.Errorf("persist classification batch: %w", err)
	}

	util.LogInfof("Classification for %s: %d sessions -> %d groups (batch %s)",
		userID, len(sessions), len(result), batch.ID)
	return nil
}

func (p *Pipeline) group(ctx context.Context, items []GroupingItem, byID map[string]model.Session) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.grouper.GroupTopics(ctx, items)
	if err != nil {
		return nil, err
	}
	return ParseGroupingResponse(raw, byID)
}

// ParseGroupingResponse extracts and validates a grouping response: a JSON
// array of arrays of known session ids forming an exact partition. Anything
// else is rejected as malformed.
func ParseGroupingResponse(raw string, byID map[string]model.Session) ([][]string, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var groups [][]string
	if err := sonic.UnmarshalString(payload, &groups); err != nil {
		return nil, fmt.Errorf("decode grouping response: %w", err)
	}

	seen := make(map[string]bool, len(byID))
	for _, group := range groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("grouping response contains an empty group")
		}
		for _, id := range group {
			if _, known := byID[id]; !known {
				return nil, fmt.Errorf("grouping response references unknown id %q", id)
			}
			if seen[id] {
				return nil, fmt.Errorf("grouping response repeats id %q", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != len(byID) {
		return nil, fmt.Errorf("grouping response covers %d of %d ids", len(seen), len(byID))
	}
	return groups, nil
}

func (p *Pipeline) summarize(ctx context.Context, ids []string, byID map[string]model.Session) (*model.ClassificationGroup, error) {
	items := make([]SummaryItem, len(ids))
	var total int64
	for i, id := range ids {
		sess := byID[id]
		items[i] = SummaryItem{Topic: topicOf(sess), KeyPoints: []string{}, Duration: sess.Duration}
		total += sess.Duration
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.summarizer.SummarizeGroup(callCtx, items)
	if err != nil {
		return nil, err
	}

	summary, err := ParseSummaryResponse(raw)
	if err != nil {
		return nil, err
	}

	return &model.ClassificationGroup{
		SessionIDs:    ids,
		Topic:         summary.Topic,
		SummaryPoints: summary.SummaryPoints,
		Keywords:      summary.Keywords,
		TotalDuration: total,
	}, nil
}

// ParseSummaryResponse extracts and validates a summarizer response:
// topic <= 40 chars, 3 to 5 summary points, at most 10 keywords.
func ParseSummaryResponse(raw string) (*GroupSummary, error) {
	payload, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var summary GroupSummary
	if err := sonic.UnmarshalString(payload, &summary); err != nil {
		return nil, fmt.Errorf("decode summary response: %w", err)
	}

	if summary.Topic == "" {
		return nil, fmt.Errorf("summary response missing topic")
	}
	// Truncate in runes; a byte slice could split a multibyte character.
	if runes := []rune(summary.Topic); len(runes) > 40 {
		summary.Topic = string(runes[:40])
	}
	if len(summary.SummaryPoints) < 3 || len(summary.SummaryPoints) > 5 {
		return nil, fmt.Errorf("summary response has %d points, want 3-5", len(summary.SummaryPoints))
	}
	if len(summary.Keywords) > 10 {
		summary.Keywords = summary.Keywords[:10]
	}
	return &summary, nil
}

// topicOf is the best available per-session topic text: the page title when
// the classifier stored one, the domain otherwise.
func topicOf(sess model.Session) string {
	if sess.Title != "" {
		return sess.Title
	}
	return sess.Domain
}

// batchID builds a sortable timestamp-prefixed id so batches list in
// creation order under a lexicographic scan.
func batchID(at time.Time) string {
	return fmt.Sprintf("%s-%s", at.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}
