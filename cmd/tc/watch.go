package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"gotam/pkg/config"
	"gotam/pkg/utils"
)

// settle absorbs the burst of events an editor produces for one save.
const settle = 100 * time.Millisecond

// watch compiles source once, then again after every change until ctx is
// done. Compilation failures are printed and do not end the watch.
func watch(ctx context.Context, source string, cfg config.Config, out io.Writer) error {
	fullPath, dir, err := utils.GetPathInfo(source)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file rather than
	// write it in place, which drops a watch on the file itself.
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	rebuild := func() {
		if err := compileFile(source, cfg, out); err != nil && !errors.Is(err, errFailed) {
			fmt.Fprintf(out, "tc: %v\n", err)
		}
		fmt.Fprintf(out, "Watching %s for changes ...\n", fullPath)
	}
	rebuild()

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != fullPath {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "tc: watch: %v\n", err)
		case <-pending:
			pending = nil
			rebuild()
		}
	}
}
