package events

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuswatch/focuswatch/internal/core/model"
)

func writeEventFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestParseFile(t *testing.T) {
	path := writeEventFile(t, `{"type":"click","timestamp":1000,"url":"https://example.com"}
{"type":"keydown","timestamp":2000,"url":"https://example.com/editor"}
{"type":"mousemove","timestamp":3000,"url":"https://example.com"}
`)

	events, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, model.EventClick, events[0].Type)
	assert.Equal(t, int64(1000), events[0].Timestamp)
	assert.Equal(t, "https://example.com/editor", events[1].URL)
}

func TestParseFile_SkipsMalformedLines(t *testing.T) {
	path := writeEventFile(t, `{"type":"click","timestamp":1000,"url":"https://a.com"}
this is not json
{"type":"click","url":"https://missing-timestamp.com"}

{"type":"keydown","timestamp":2000,"url":"https://b.com"}
`)

	events, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1000), events[0].Timestamp)
	assert.Equal(t, int64(2000), events[1].Timestamp)
}

func TestParseFile_URLFallback(t *testing.T) {
	path := writeEventFile(t, `{"type":"click","timestamp":1000}
`)

	events, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.UnknownURL, events[0].URL)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}

func TestParseFile_Empty(t *testing.T) {
	events, err := ParseFile(writeEventFile(t, ""))
	require.NoError(t, err)
	assert.Empty(t, events)
}
