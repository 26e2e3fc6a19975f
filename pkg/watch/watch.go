// Package watch reports changed files under a set of directories.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"lukechampine.com/blake3"
)

// Event is a file whose content changed or that was removed.
type Event struct {
	Path    string
	Removed bool
}

// Handler receives the events of one debounce window, sorted by path.
type Handler func(ctx context.Context, events []Event)

type Options struct {
	// Debounce is how long to wait for more events before calling the
	// handler. Editors often write a file in several steps.
	Debounce time.Duration
	// Filter selects the files of interest; nil accepts all.
	Filter func(path string) bool
	Logger *slog.Logger
}

// Watcher watches directories recursively. Writes that leave a file's
// content unchanged are not reported.
type Watcher struct {
	fsw     *fsnotify.Watcher
	opts    Options
	log     *slog.Logger
	digests map[string][32]byte
}

// New starts watching dirs and every directory below them.
func New(dirs []string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 100 * time.Millisecond
	}
	w := &Watcher{fsw: fsw, opts: opts, log: opts.Logger, digests: make(map[string][32]byte)}
	if w.log == nil {
		w.log = slog.Default()
	}
	for _, d := range dirs {
		if err := w.addTree(d); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches dir and its subdirectories and records the digest of
// every file found, so that the first write is compared with the content
// seen at startup.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		if w.accept(p) {
			w.changed(p)
		}
		return nil
	})
}

func (w *Watcher) accept(p string) bool {
	return w.opts.Filter == nil || w.opts.Filter(p)
}

// changed records the digest of p and reports whether it differs from the
// previous one.
func (w *Watcher) changed(p string) (bool, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return false, err
	}
	sum := blake3.Sum256(data)
	old, seen := w.digests[p]
	w.digests[p] = sum
	return !seen || old != sum, nil
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers events to h until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, h Handler) error {
	pending := make(map[string]bool) // path -> removed
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.log.Warn("cannot watch directory", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if !w.accept(ev.Name) {
				continue
			}
			pending[ev.Name] = ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-timer.C:
			if events := w.flush(pending); len(events) > 0 {
				h(ctx, events)
			}
			clear(pending)
		}
	}
}

func (w *Watcher) flush(pending map[string]bool) []Event {
	var events []Event
	for p, removed := range pending {
		if !removed {
			changed, err := w.changed(p)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				removed = true
			case err != nil:
				w.log.Warn("cannot read changed file", "path", p, "error", err)
				continue
			case !changed:
				w.log.Debug("content unchanged", "path", p)
				continue
			}
		}
		if removed {
			if _, err := os.Stat(p); err == nil {
				// renamed over: treat as a change
				if changed, _ := w.changed(p); !changed {
					continue
				}
				events = append(events, Event{Path: p})
				continue
			}
			delete(w.digests, p)
		}
		events = append(events, Event{Path: p, Removed: removed})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events
}
