package classify

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/focuswatch/focuswatch/internal/core/model"
)

// CommandCollaborator runs an external program as an LLM collaborator: the
// request is JSON on stdin, the response is whatever the program prints.
// The context bounds the call, so a hung collaborator is killed rather than
// blocking the pipeline.
type CommandCollaborator struct {
	Command string
	Args    []string
}

func (c *CommandCollaborator) call(ctx context.Context, request interface{}) (string, error) {
	payload, err := sonic.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("run %s: %w (stderr: %s)",
			c.Command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ExecGrouper adapts a CommandCollaborator to the Grouper interface.
type ExecGrouper struct {
	CommandCollaborator
}

// GroupTopics sends the grouping request and returns the raw response text.
func (g *ExecGrouper) GroupTopics(ctx context.Context, items []GroupingItem) (string, error) {
	return g.call(ctx, items)
}

// ExecSummarizer adapts a CommandCollaborator to the Summarizer interface.
type ExecSummarizer struct {
	CommandCollaborator
}

// SummarizeGroup sends the summarization request and returns the raw
// response text.
func (s *ExecSummarizer) SummarizeGroup(ctx context.Context, items []SummaryItem) (string, error) {
	return s.call(ctx, items)
}

// Categorizer assigns a content category to a finalized session. It is an
// external collaborator like the grouper and summarizer; the core never
// classifies content itself.
type Categorizer interface {
	Categorize(ctx context.Context, session *model.Session) (model.Category, error)
}

// ExecCategorizer adapts a CommandCollaborator to the Categorizer interface.
// The program receives the session as JSON and must print one tracked
// category name.
type ExecCategorizer struct {
	CommandCollaborator
}

// Categorize returns the collaborator's category, rejecting anything outside
// the tracked set.
func (c *ExecCategorizer) Categorize(ctx context.Context, session *model.Session) (model.Category, error) {
	out, err := c.call(ctx, session)
	if err != nil {
		return "", err
	}

	category := model.Category(strings.TrimSpace(out))
	if !category.IsTracked() {
		return "", fmt.Errorf("categorizer returned untracked category %q", category)
	}
	return category, nil
}
