// Package watch reloads file-backed configuration when files change on disk.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a burst of changes is reported.
const DefaultDebounce = 200 * time.Millisecond

// ErrAlreadyStarted is returned by Start on a running watcher.
var ErrAlreadyStarted = errors.New("watcher already started")

// Config holds configuration for a Watcher.
type Config struct {
	// Dir is the directory to watch. Subdirectories are not watched.
	Dir string

	// Match selects the file names that count as changes. Nil matches everything.
	Match func(name string) bool

	// OnChange is called once per debounced burst of changes.
	OnChange func()

	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher calls OnChange after files in Dir are written, created, removed or renamed.
type Watcher struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg *Config) *Watcher {
	c := *cfg
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return &Watcher{
		cfg:    c,
		logger: c.Logger.With("component", "watch", "dir", c.Dir),
		done:   make(chan struct{}),
	}
}

// Start begins watching until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.cfg.Dir); err != nil {
		_ = fw.Close()
		return err
	}
	w.started = true

	go w.loop(ctx, fw)
	w.logger.Info("Watching for changes")
	return nil
}

// Done is closed once the watcher has stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer close(w.done)
	defer fw.Close()

	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case evt, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.relevant(evt) {
				continue
			}
			w.logger.Debug("File changed", "file", evt.Name, "op", evt.Op.String())
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.cfg.Debounce)
			pending = true

		case <-timer.C:
			pending = false
			if w.cfg.OnChange != nil {
				w.cfg.OnChange()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if w.cfg.Match == nil {
		return true
	}
	return w.cfg.Match(filepath.Base(evt.Name))
}
