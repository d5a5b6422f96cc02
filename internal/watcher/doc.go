// Package watcher provides real-time file system watching with automatic
// debouncing and backpressure.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: Polling, used only when an fsnotify watcher cannot be created
//     (a watcher that is created but receives no events, as on some network
//     mounts, is not detected and does not switch to polling)
//
// Events are debounced to coalesce rapid changes from IDEs and git
// operations. The watcher never applies ignore patterns — those gate only
// the export path (spec §3 invariant I-7), so local indexing always sees
// every file, including .env and other sensitive paths a .gitignore would
// otherwise hide.
//
// Usage:
//
//	opts := watcher.DefaultOptions()
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(ctx, "/path/to/project"); err != nil {
//	    return err
//	}
//
//	for event := range w.Events() {
//	    switch event.Operation {
//	    case watcher.OpCreate:
//	        // Handle file creation
//	    case watcher.OpModify:
//	        // Handle file modification
//	    case watcher.OpDelete:
//	        // Handle file deletion
//	    }
//	}
package watcher
