package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Waiter pauses the loop between ticks.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// SleepWaiter waits the full interval.
type SleepWaiter struct{}

func (SleepWaiter) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NotifyWaiter waits the interval but wakes early when the watched file is
// created or written.
type NotifyWaiter struct {
	watcher *fsnotify.Watcher
	file    string
	log     zerolog.Logger
}

// NewNotifyWaiter subscribes to events in the directory holding file. The
// directory is watched rather than the file so that editors which replace
// the file on save are still seen.
func NewNotifyWaiter(file string, log zerolog.Logger) (*NotifyWaiter, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(file)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(file), err)
	}
	return &NotifyWaiter{watcher: w, file: filepath.Clean(file), log: log}, nil
}

func (n *NotifyWaiter) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		case event, ok := <-n.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != n.file || !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				continue
			}
			n.log.Debug().Str("event", event.Op.String()).Msg("watch file changed")
			return nil
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return nil
			}
			n.log.Warn().Err(err).Msg("fs watcher error")
		}
	}
}

// Close releases the underlying watcher.
func (n *NotifyWaiter) Close() error {
	return n.watcher.Close()
}
