// Package watcher hot-reloads obc.yaml: a debounced fsnotify watch on the
// config file's directory republishes bus.ConfigReloaded whenever the file
// changes and still validates.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"invictus2obc/internal/app/bus"
	"invictus2obc/internal/config"
	"invictus2obc/internal/config/logger"
)

// Watcher hot-reloads the config file and publishes each validated reload
// on bus.ConfigReloaded.
type Watcher interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type watcher struct {
	path string
	bus  *bus.Bus
	log  logger.Logger

	fsWatcher *fsnotify.Watcher
	debouncer Debouncer

	mu     sync.Mutex
	base   *config.Config
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Watcher over config.ConfigFile. base is the
// already-loaded config a reload is layered on top of, matching
// config.LoadBytes' "reload without re-reading defaults" contract.
func New(b *bus.Bus, base *config.Config, log logger.Logger) (Watcher, error) {
	abs, err := filepath.Abs(config.ConfigFile)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		path: abs,
		bus:  b,
		log:  log.WithComponent("Watcher"),

		fsWatcher: fsw,
		base:      base,
	}

	w.debouncer = NewDebouncer(config.ConfigWatchDebounce, w.reload)

	return w, nil
}

// Start watches the config file's parent directory — editors typically
// replace a file via rename, which fsnotify only reports against the
// containing directory, not the stale inode — and begins dispatching
// debounced reload triggers.
func (w *watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(runCtx)

	return nil
}

// Stop cancels the watch loop and releases the underlying fsnotify handle.
func (w *watcher) Stop(context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	w.wg.Wait()
	w.debouncer.Stop()

	return w.fsWatcher.Close()
}

func (w *watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if w.relevant(event) {
				w.debouncer.Trigger(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

			w.log.Warn().Err(err).Msg("config watch error")
		}
	}
}

// relevant reports whether event concerns the config file itself, not some
// unrelated file sharing its directory.
func (w *watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}

	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// reload re-reads and re-validates obc.yaml and, on success, publishes the
// new config. A failed reload is logged and the prior config stays in
// effect — a typo mid-edit must never take the controller down.
func (w *watcher) reload([]string) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.log.Warn().Err(err).Msg("config reload: read failed, keeping prior config")
		return
	}

	w.mu.Lock()
	prior := *w.base
	w.mu.Unlock()

	next, err := config.LoadBytes(data, &prior)
	if err != nil {
		w.log.Warn().Err(err).Msg("config reload: rejected, keeping prior config")
		return
	}

	w.mu.Lock()
	w.base = next
	w.mu.Unlock()

	w.log.Info().Msg("config reloaded")

	if err := bus.Publish(w.bus, bus.ConfigReloaded, next); err != nil {
		w.log.Warn().Err(err).Msg("config_reloaded channel delivery saturated")
	}
}
