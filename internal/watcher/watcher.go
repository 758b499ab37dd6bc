// Package watcher polls the request file and hands fresh versions to a handler.
package watcher

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/FarhadManiCodes/gmail-file-mailer/internal/notify"
)

// Handler processes the request file at path.
type Handler func(ctx context.Context, path string) error

// Fresh reports whether mod falls inside the window ending at now.
func Fresh(mod, now time.Time, window time.Duration) bool {
	return mod.After(now.Add(-window))
}

// Watcher checks one file every interval.
type Watcher struct {
	fs       afero.Fs
	path     string
	interval time.Duration
	clock    Clock
	waiter   Waiter
	notifier notify.Notifier
	log      zerolog.Logger

	lastHandled time.Time
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

// WithWaiter replaces the fixed sleep between ticks.
func WithWaiter(wt Waiter) Option {
	return func(w *Watcher) { w.waiter = wt }
}

func New(fs afero.Fs, path string, interval time.Duration, notifier notify.Notifier, log zerolog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		fs:       fs,
		path:     path,
		interval: interval,
		clock:    SystemClock,
		waiter:   SleepWaiter{},
		notifier: notifier,
		log:      log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run ticks until ctx is cancelled, which is a clean stop and returns nil.
// A handler error ends the loop and is returned.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	w.log.Info().Str("path", w.path).Dur("interval", w.interval).Msg("watching for requests")
	for {
		if err := w.Tick(ctx, handle); err != nil {
			return err
		}
		if err := w.waiter.Wait(ctx, w.interval); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.log.Info().Msg("watcher stopped")
				return nil
			}
			return err
		}
	}
}

// Tick runs a single check, invoking handle when the file is fresh.
func (w *Watcher) Tick(ctx context.Context, handle Handler) error {
	now := w.clock.Now()

	info, err := w.fs.Stat(w.path)
	if err != nil || !info.Mode().IsRegular() {
		w.log.Debug().Err(err).Str("path", w.path).Msg("watch file unavailable")
		w.notifier.Notify(ctx, notify.MsgInvalidWatchFile)
		return nil
	}

	mod := info.ModTime()
	if !Fresh(mod, now, w.interval) || mod.Equal(w.lastHandled) {
		return nil
	}
	w.lastHandled = mod

	w.log.Info().Time("modified", mod).Msg("new request")
	return handle(ctx, w.path)
}
