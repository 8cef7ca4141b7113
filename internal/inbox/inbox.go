// Package inbox watches a drop directory and reports audio files once
// they have stopped changing. It never touches the library: the owner
// of the library reads Files and decides what to ingest.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/llehouerou/liveset/internal/tags"
)

const (
	// DefaultSettle is how long a file must stay quiet before delivery.
	DefaultSettle = 500 * time.Millisecond

	defaultBuffer = 16
	minCheck      = 10 * time.Millisecond
)

// Options configures a Watcher.
type Options struct {
	Settle time.Duration
	Buffer int
	Logger *zerolog.Logger
}

// Watcher reports settled audio files dropped in a directory.
type Watcher struct {
	dir    string
	settle time.Duration
	files  chan string
	log    zerolog.Logger
}

// New creates a watcher for dir. Call Run to start watching.
func New(dir string, opts Options) *Watcher {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	buf := opts.Buffer
	if buf <= 0 {
		buf = defaultBuffer
	}
	return &Watcher{
		dir:    dir,
		settle: settle,
		files:  make(chan string, buf),
		log:    log.With().Str("component", "inbox").Logger(),
	}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Files delivers the absolute path of each settled audio file. It is
// closed when Run returns.
func (w *Watcher) Files() <-chan string { return w.files }

// Run watches the directory until ctx is done. A file is delivered once
// no write has been seen for the settle period; it is delivered again
// only after being removed or renamed away.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.files)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info().Str("dir", w.dir).Dur("settle", w.settle).Msg("inbox watching")

	pending := make(map[string]time.Time)
	delivered := make(map[string]bool)

	check := time.NewTicker(max(w.settle/4, minCheck))
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !tags.IsMusicFile(ev.Name) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, ev.Name)
				delete(delivered, ev.Name)
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if !delivered[ev.Name] {
					pending[ev.Name] = time.Now()
				}
			}

		case <-check.C:
			now := time.Now()
			for path, last := range pending {
				if now.Sub(last) < w.settle {
					continue
				}
				if !complete(path) {
					delete(pending, path)
					continue
				}
				abs, err := filepath.Abs(path)
				if err != nil {
					abs = path
				}
				select {
				case w.files <- abs:
					w.log.Debug().Str("file", abs).Msg("inbox file settled")
				default:
					// Reader is busy, retry on the next tick.
					continue
				}
				delete(pending, path)
				delivered[path] = true
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("inbox watch error")
		}
	}
}

// complete reports whether path is a non-empty regular file.
func complete(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
