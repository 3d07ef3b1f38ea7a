package model

import "strings"

// Category is the closed set of content categories assigned by the external
// content classifier. Tie-breaking in block aggregation depends on iterating
// these in declaration order, so always range over TrackedCategories rather
// than a map.
type Category string

const (
	CategoryGrowth        Category = "Growth"
	CategoryDailyLife     Category = "DailyLife"
	CategoryEntertainment Category = "Entertainment"

	// CategoryNone marks a block with no tracked activity.
	CategoryNone Category = "NA"
)

// TrackedCategories is the fixed iteration order for duration accumulation
// and major-category selection. First listed wins on an exact tie.
var TrackedCategories = []Category{
	CategoryGrowth,
	CategoryDailyLife,
	CategoryEntertainment,
}

// IsTracked reports whether c participates in duration aggregation.
func (c Category) IsTracked() bool {
	for _, t := range TrackedCategories {
		if c == t {
			return true
		}
	}
	return false
}

// SessionType distinguishes sessions long enough to be meaningful activity.
type SessionType string

const (
	SessionActive   SessionType = "active"
	SessionInactive SessionType = "inactive"
)

// EventType enumerates the raw input events the monitor recognizes.
type EventType string

const (
	EventMouseMove EventType = "mousemove"
	EventClick     EventType = "click"
	EventKeyDown   EventType = "keydown"
)

// KnownEventTypes lists the event types that are tallied per session.
var KnownEventTypes = []EventType{EventMouseMove, EventClick, EventKeyDown}

// ActivityEvent is one raw input event delivered by the event source.
// Timestamp is epoch milliseconds.
type ActivityEvent struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	URL       string    `json:"url"`
}

// UnknownURL is the fallback when the event source cannot resolve a URL.
const UnknownURL = "unknown"

// Session is a contiguous span of user activity on one page, bounded by idle
// gaps. Sessions are immutable once emitted by the monitor; only the
// externally assigned SummaryCategory may be filled in later.
type Session struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	StartTime int64  `json:"startTime"` // epoch ms
	EndTime   int64  `json:"endTime"`   // epoch ms, always > StartTime
	// Duration is derived: floor((EndTime-StartTime)/1000) seconds.
	Duration    int64       `json:"duration"`
	SessionType SessionType `json:"sessionType"`

	URL    string `json:"url"`
	Domain string `json:"domain"`
	Title  string `json:"title,omitempty"`

	// EventCount tallies events per type. Diagnostic only; aggregation math
	// never reads it.
	EventCount map[EventType]int `json:"eventCount,omitempty"`

	// SummaryCategory is assigned by the external content classifier and may
	// be empty.
	SummaryCategory Category `json:"summaryCategory,omitempty"`
}

// DomainOf derives the host portion of a URL by splitting, never failing.
// Mirrors how the extension reports domains: scheme and path stripped, no
// validation.
func DomainOf(url string) string {
	if url == "" || url == UnknownURL {
		return UnknownURL
	}
	s := url
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return UnknownURL
	}
	return s
}
