package events

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/focuswatch/focuswatch/internal/core/model"
	"github.com/focuswatch/focuswatch/internal/util"
)

// Tailer streams activity events from a growing JSONL file: existing lines
// first, then every appended line as the event source writes it.
type Tailer struct {
	path    string
	watcher *fsnotify.Watcher

	// partial holds a line fragment read before its newline arrived.
	partial string
}

// NewTailer creates a Tailer for one event file.
func NewTailer(path string) (*Tailer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory: editors and extensions often replace files, which
	// only the parent directory observes reliably.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &Tailer{path: path, watcher: watcher}, nil
}

// Run delivers events to out until the context is cancelled. The channel is
// closed on return.
func (t *Tailer) Run(ctx context.Context, out chan<- model.ActivityEvent) error {
	defer close(out)
	defer t.watcher.Close()

	file, err := os.Open(t.path)
	if err != nil {
		return err
	}
	defer func() { file.Close() }()

	reader := bufio.NewReader(file)
	if err := t.drain(ctx, reader, out); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(t.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// The file was replaced; the old handle now tails an orphan.
				replacement, err := os.Open(t.path)
				if err != nil {
					util.LogWarnf("Failed to reopen replaced event file %s: %v", t.path, err)
					continue
				}
				file.Close()
				file = replacement
				reader = bufio.NewReader(file)
				t.partial = ""
			}
			if err := t.drain(ctx, reader, out); err != nil {
				return err
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			util.LogWarnf("Event file watcher error: %v", err)
		}
	}
}

// drain reads and emits every complete line currently available.
func (t *Tailer) drain(ctx context.Context, reader *bufio.Reader, out chan<- model.ActivityEvent) error {
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			// Keep the trailing fragment until the rest of the line lands.
			t.partial += line
			return nil
		}
		if err != nil {
			return err
		}
		line = t.partial + line
		t.partial = ""
		if ev, ok := parseLine(line); ok {
			select {
			case out <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
