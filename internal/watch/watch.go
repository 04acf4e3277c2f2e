// Package watch recursively watches a directory tree for changes,
// grounded on the teacher's watchConfigFile (main.go) fsnotify setup
// but generalized from a single watched file to an entire tree: every
// directory under root is registered individually since fsnotify has
// no native recursive mode, and newly created subdirectories are
// auto-registered as they appear.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"filemock/internal/diag"
)

// Watcher recursively watches root and publishes a notification on
// Events whenever anything under the tree changes. The payload is
// intentionally empty: the reload coordinator always performs a full
// rescan regardless of which file changed.
type Watcher struct {
	fsw    *fsnotify.Watcher
	sink   diag.Sink
	Events chan struct{}

	done    chan struct{}
	running bool
}

// New creates a Watcher rooted at root. It registers root and every
// subdirectory beneath it at construction time; New fails if root
// cannot be walked.
func New(root string, sink diag.Sink) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		sink:   sink,
		Events: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// A transient stat error on one subdirectory shouldn't abort
			// watching the rest of the tree.
			sink.Emit(diag.Diagnostic{Kind: diag.KindFileUnreadable, Path: path, Err: err})
			return nil
		}
		if d.IsDir() {
			if addErr := fsw.Add(path); addErr != nil {
				sink.Emit(diag.Diagnostic{Kind: diag.KindFileUnreadable, Path: path, Err: addErr})
			}
		}
		return nil
	}); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Run drains fsnotify events, registers newly created subdirectories,
// and signals Events on every change. It returns when Close is called.
func (w *Watcher) Run() {
	w.running = true
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if addErr := w.fsw.Add(event.Name); addErr != nil {
						w.sink.Emit(diag.Diagnostic{Kind: diag.KindFileUnreadable, Path: event.Name, Err: addErr})
					}
				}
			}
			w.notify()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sink.Warn("filesystem watcher error: " + err.Error())
		}
	}
}

// notify pushes a non-blocking notification onto Events; a pending
// notification already queued is sufficient since the coordinator
// always rescans the full tree on wake.
func (w *Watcher) notify() {
	select {
	case w.Events <- struct{}{}:
	default:
	}
}

// Close stops the underlying fsnotify watcher and waits for Run to
// return. If Run was never started, Close only closes the fsnotify
// watcher and does not wait.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	if w.running {
		<-w.done
	}
	return err
}
