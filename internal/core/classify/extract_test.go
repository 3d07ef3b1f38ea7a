package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_BarePayload(t *testing.T) {
	got, err := ExtractJSON(`[["a","b"],["c"]]`)
	require.NoError(t, err)
	assert.Equal(t, `[["a","b"],["c"]]`, got)
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	raw := "Here are the groups:\n```json\n[[\"a\"],[\"b\",\"c\"]]\n```\nLet me know if you need anything else."
	got, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, `[["a"],["b","c"]]`, got)
}

func TestExtractJSON_ProseWrappedObject(t *testing.T) {
	raw := `Sure! {"topic": "Go", "summaryPoints": ["x", "y", "z"]} Hope that helps.`
	got, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"topic": "Go", "summaryPoints": ["x", "y", "z"]}`, got)
}

func TestExtractJSON_BracketsInsideStrings(t *testing.T) {
	raw := `{"topic": "arrays [1] and {maps}", "keywords": ["a\"b"]}`
	got, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestExtractJSON_MixedNesting(t *testing.T) {
	raw := `prefix [{"ids": ["a", "b"]}, {"ids": ["c"]}] suffix`
	got, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, `[{"ids": ["a", "b"]}, {"ids": ["c"]}]`, got)
}

func TestExtractJSON_NoPayload(t *testing.T) {
	_, err := ExtractJSON("I could not classify these sessions.")
	assert.Error(t, err)
}

func TestExtractJSON_Unbalanced(t *testing.T) {
	_, err := ExtractJSON(`[["a", "b"], ["c"`)
	assert.Error(t, err)
}
