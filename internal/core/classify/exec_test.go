package classify

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuswatch/focuswatch/internal/core/model"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("exec collaborator tests need a POSIX shell")
	}
}

func TestExecCategorizer(t *testing.T) {
	skipWithoutShell(t)

	c := &ExecCategorizer{CommandCollaborator{
		Command: "sh", Args: []string{"-c", "echo ' Growth '"},
	}}
	category, err := c.Categorize(context.Background(), &model.Session{ID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryGrowth, category)
}

func TestExecCategorizer_RejectsUntracked(t *testing.T) {
	skipWithoutShell(t)

	c := &ExecCategorizer{CommandCollaborator{
		Command: "sh", Args: []string{"-c", "echo Sports"},
	}}
	_, err := c.Categorize(context.Background(), &model.Session{ID: "s1"})
	assert.Error(t, err)
}

func TestExecGrouper_ReadsStdin(t *testing.T) {
	skipWithoutShell(t)

	// cat echoes the JSON request back, proving the request reaches stdin.
	g := &ExecGrouper{CommandCollaborator{Command: "cat"}}
	out, err := g.GroupTopics(context.Background(), []GroupingItem{
		{ID: "a", Topic: "go", Duration: 60},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"id":"a"`)
}

func TestCommandCollaborator_FailureIncludesStderr(t *testing.T) {
	skipWithoutShell(t)

	c := &CommandCollaborator{
		Command: "sh", Args: []string{"-c", "echo boom >&2; exit 3"},
	}
	_, err := c.call(context.Background(), map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCommandCollaborator_ContextKillsHungProcess(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := &CommandCollaborator{Command: "sleep", Args: []string{"10"}}
	_, err := c.call(ctx, map[string]string{})
	assert.Error(t, err)
}
