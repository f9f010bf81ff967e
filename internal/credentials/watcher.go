package credentials

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads a Reloadable whenever its token file changes. The parent
// directory is watched so editors that replace the file on save are seen.
type Watcher struct {
	mu       sync.Mutex
	creds    *Reloadable
	watcher  *fsnotify.Watcher
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher prepares a watcher for creds' token file.
func NewWatcher(creds *Reloadable) (*Watcher, error) {
	if creds.Path() == "" {
		return nil, ErrNoTokenFile
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		creds:    creds,
		watcher:  fw,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.creds.Path())); err != nil {
		return err
	}
	log.Info().Str("path", w.creds.Path()).Msg("watching bot token file")

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the fsnotify watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		log.Error().Err(err).Msg("close token watcher")
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	target := filepath.Clean(w.creds.Path())
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			// Coalesce bursts of writes from one save.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.creds.Reload(); err != nil {
				log.Warn().Err(err).Str("path", target).Msg("bot token reload failed; keeping previous token")
				continue
			}
			log.Info().Str("preview", w.creds.Status().Preview).Msg("bot token reloaded from file")

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("token watcher error")
		}
	}
}
