// Package watch re-runs work whenever a scenario file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is used when Config.Debounce is zero
const DefaultDebounce = 100 * time.Millisecond

// ChangeCallback is called once per settled burst of writes
type ChangeCallback func(path string) error

// Config holds configuration for the watcher
type Config struct {
	// Path is the file to watch. Its directory is watched so editors that
	// save by rename are still seen.
	Path string
	// Debounce waits for writes to settle before calling OnChange.
	Debounce time.Duration
	OnChange ChangeCallback
}

// Watcher monitors one file for changes
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	onChange ChangeCallback
	logger   zerolog.Logger

	done     chan struct{}
	timer    *time.Timer
	timerMu  sync.Mutex
	stopOnce sync.Once
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, errors.New("watch path is required")
	}
	if cfg.OnChange == nil {
		return nil, errors.New("change callback is required")
	}

	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cfg.Path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	return &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		logger:   log.Logger.With().Str("component", "watch").Str("path", abs).Logger(),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the file's directory and processes events in the background
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	go w.eventLoop()

	w.logger.Info().Msg("Watcher started")
	return nil
}

// Stop stops the watcher. Pending callbacks are dropped.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.timerMu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.timerMu.Unlock()

		if cerr := w.watcher.Close(); cerr != nil {
			err = fmt.Errorf("failed to close watcher: %w", cerr)
		}
		w.logger.Info().Msg("Watcher stopped")
	})
	return err
}

// Run starts the watcher and blocks until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	if err := w.Stop(); err != nil {
		return err
	}
	return ctx.Err()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// a rename-based save is followed by a Create for the same name
		w.logger.Debug().Str("op", event.Op.String()).Msg("Watched file moved away")
	}
}

// schedule restarts the debounce timer
func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.timerMu.Lock()
	w.timer = nil
	w.timerMu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	if err := w.onChange(w.path); err != nil {
		w.logger.Error().Err(err).Msg("Error handling file change")
	}
}
