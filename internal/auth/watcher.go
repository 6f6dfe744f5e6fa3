package auth

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads a token store when its tokens file changes on disk,
// so tokens added or revoked with the CLI take effect without a server
// restart. The parent directory is watched since fsnotify cannot watch
// a file that does not exist yet.
type Watcher struct {
	store      *Store
	targetPath string
	parentPath string
	watcher    *fsnotify.Watcher
	ctx        context.Context
	cancel     context.CancelFunc
	mu         sync.Mutex
	running    bool
	debounce   time.Duration
}

// NewWatcher creates a Watcher over the store's tokens file.
func NewWatcher(store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		store:      store,
		targetPath: filepath.Clean(store.Path()),
		parentPath: filepath.Dir(store.Path()),
		watcher:    fsw,
		ctx:        ctx,
		cancel:     cancel,
		debounce:   100 * time.Millisecond,
	}, nil
}

// Start begins watching for changes to the tokens file.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.parentPath); err != nil {
		log.Warn().Err(err).Str("path", w.parentPath).Msg("failed to watch tokens directory")
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	var (
		debounceTimer *time.Timer
		pending       bool
	)

	for {
		select {
		case <-w.ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.targetPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Editors and atomic renames fire bursts of events;
			// coalesce them into one reload.
			w.mu.Lock()
			if pending {
				w.mu.Unlock()
				continue
			}
			pending = true
			w.mu.Unlock()
			debounceTimer = time.AfterFunc(w.debounce, func() {
				w.mu.Lock()
				pending = false
				w.mu.Unlock()
				if err := w.store.Reload(); err != nil {
					log.Warn().Err(err).Str("path", w.targetPath).Msg("failed to reload tokens file")
					return
				}
				log.Info().Str("path", w.targetPath).Msg("tokens file reloaded")
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("tokens watcher error")
		}
	}
}
