package events

import (
	"bufio"
	"os"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/focuswatch/focuswatch/internal/core/model"
	"github.com/focuswatch/focuswatch/internal/util"
)

// ParseFile reads a JSONL activity-event file. Malformed lines are skipped
// with a debug log rather than failing the file; an event without a URL
// falls back to the unknown sentinel.
func ParseFile(path string) ([]model.ActivityEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		util.LogDebugf("Failed to open event file: %s - %v", path, err)
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var events []model.ActivityEvent
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		if ev, ok := parseLine(scanner.Text()); ok {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	util.LogDebugf("Parsed %d events from %d lines in %s", len(events), lineCount, path)
	return events, nil
}

// parseLine decodes one JSONL line into an ActivityEvent.
func parseLine(line string) (model.ActivityEvent, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return model.ActivityEvent{}, false
	}

	var ev model.ActivityEvent
	if err := sonic.UnmarshalString(line, &ev); err != nil {
		util.LogDebugf("Skipping malformed event line: %v", err)
		return model.ActivityEvent{}, false
	}
	if ev.Timestamp <= 0 {
		util.LogDebugf("Skipping event without timestamp: %s", line)
		return model.ActivityEvent{}, false
	}
	if ev.URL == "" {
		ev.URL = model.UnknownURL
	}
	return ev, true
}
