package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/codeindex-mcp/codeindex/internal/watcher"
)

// startWatcher builds and starts the hybrid watcher, and launches the pump
// goroutine that turns debounced file events into dispatcher calls. Grounded
// on the teacher's internal/daemon/server.go watcher wiring, which does the
// same "watcher event -> coordinator.ReindexFile" translation.
func (e *Engine) startWatcher() error {
	opts := watcher.Options{
		DebounceWindow: time.Duration(e.cfg.Watcher.DebounceMS) * time.Millisecond,
		PollInterval:   e.cfg.Watcher.PollFallbackInterval,
		QueueCap:       e.cfg.Watcher.QueueCap,
	}.WithDefaults()

	w, err := watcher.NewHybridWatcher(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.watch = w
	e.watchCancel = cancel
	e.watchDone = done

	go func() {
		defer close(done)
		if err := w.Start(ctx, e.rootPath); err != nil && ctx.Err() == nil {
			e.log.Error("watcher start failed", slog.String("error", err.Error()))
		}
	}()

	go e.pumpWatcherEvents(ctx, w)

	return nil
}

// pumpWatcherEvents applies every debounced batch to the dispatcher (and,
// when configured, the semantic index), implementing spec scenario 5
// (watcher delete semantics).
func (e *Engine) pumpWatcherEvents(ctx context.Context, w *watcher.HybridWatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-w.Events():
			if !ok {
				return
			}
			for _, evt := range batch {
				e.applyWatchEvent(ctx, evt)
			}
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			e.log.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) applyWatchEvent(ctx context.Context, evt watcher.FileEvent) {
	relPath := filepath.ToSlash(evt.Path)
	if evt.IsDir {
		return
	}

	switch evt.Operation {
	case watcher.OpDelete:
		if err := e.disp.RemoveFile(ctx, relPath); err != nil {
			e.log.Warn("watcher remove failed", slog.String("path", relPath), slog.String("error", err.Error()))
			return
		}
		if e.semantic != nil {
			e.removeSemanticOne(relPath)
		}
	default: // OpCreate, OpModify, OpRename
		stats, err := e.disp.ReindexFile(ctx, relPath)
		if err != nil {
			e.log.Warn("watcher reindex failed", slog.String("path", relPath), slog.String("error", err.Error()))
			return
		}
		if e.semantic != nil && stats.Indexed > 0 {
			e.resyncSemanticOne(ctx, relPath)
		}
	}
}
