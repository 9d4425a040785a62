package activity

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	dErrors "tutela/pkg/domain-errors"
)

const (
	defaultDebounce   = 500 * time.Millisecond
	defaultSeedBudget = 10 * time.Second
)

// Watcher reseeds the register when its file changes. A failed reload keeps
// the previously seeded register; the watcher never stops on bad input.
type Watcher struct {
	loader     *Loader
	register   Register
	logger     *slog.Logger
	debounce   time.Duration
	seedBudget time.Duration

	fsw      *fsnotify.Watcher
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption adjusts watcher construction.
type WatcherOption func(*Watcher)

// WithDebounce sets how long a burst of file events settles before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher builds a watcher over the loader's register file. The embedded
// default has no file, so a path override is required.
func NewWatcher(loader *Loader, register Register, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	if loader.Path() == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "watching requires a register file override")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating file watcher")
	}
	w := &Watcher{
		loader:     loader,
		register:   register,
		logger:     logger,
		debounce:   defaultDebounce,
		seedBudget: defaultSeedBudget,
		fsw:        fsw,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. The parent directory is watched, not the file:
// editors and config rollouts replace files by rename, which drops a watch
// placed on the file itself.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(filepath.Dir(w.loader.Path())); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "watching register directory")
	}
	go w.run()
	return nil
}

// Stop halts watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.fsw.Close()
		<-w.done
	})
}

func (w *Watcher) run() {
	defer close(w.done)

	base := filepath.Base(w.loader.Path())
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename) {
				continue
			}
			// Editors emit bursts of writes for one save; collapse them.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.reseed()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("register watch error", "error", err)
		}
	}
}

func (w *Watcher) reseed() {
	ctx, cancel := context.WithTimeout(context.Background(), w.seedBudget)
	defer cancel()

	if err := w.loader.Seed(ctx, w.register); err != nil {
		w.logger.ErrorContext(ctx, "register reseed failed, previous register kept", "error", err)
		return
	}
	w.logger.InfoContext(ctx, "processing activity register reseeded")
}
