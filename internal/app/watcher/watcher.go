package watcher

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"powermon/internal/app/bus"
	"powermon/internal/app/power"
	"powermon/internal/config"
	"powermon/internal/config/logger"
)

// editor swap and backup files written next to the config
var ignoredNames = []string{"*.swp", "*~", ".#*", "*.tmp"}

// Watcher reloads power coefficients when the config file changes
type Watcher interface {
	Start(ctx context.Context) error
	Close()
}

type loadFunc func(path string) (*config.Config, error)

type watcher struct {
	path      string
	matcher   Matcher
	debouncer Debouncer
	fsWatcher *fsnotify.Watcher
	estimator power.Estimator
	bus       bus.Bus
	load      loadFunc
	log       logger.Logger
	mu        sync.Mutex
	closed    bool
}

// NewWatcher creates a Watcher for powermon.yaml in the working directory
func NewWatcher(est power.Estimator, b bus.Bus, log logger.Logger) (Watcher, error) {
	return newWatcher(config.FileName, est, b, config.LoadFile, log)
}

func newWatcher(path string, est power.Estimator, b bus.Bus, load loadFunc, log logger.Logger) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	matcher, err := NewMatcher([]string{filepath.Base(abs)}, ignoredNames)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		path:      abs,
		matcher:   matcher,
		fsWatcher: fsw,
		estimator: est,
		bus:       b,
		load:      load,
		log:       log.WithComponent("WATCHER"),
	}

	w.debouncer = NewDebouncer(config.WatchDebounce, func(files []string) {
		w.reload()
	})

	return w, nil
}

// Start watches the directory holding the config file so replace-on-save editors are seen too
func (w *watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)

	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}

	w.log.Info().Msgf("Watching %s for power model changes", w.path)

	go w.processEvents(ctx)

	return nil
}

// Close stops watching and releases resources
func (w *watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.closed = true

	w.debouncer.Stop()
	w.fsWatcher.Close()
}

func (w *watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if isRelevantEvent(event) && w.matcher.Match(event.Name) {
				w.debouncer.Trigger(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}

			w.log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// reload re-reads the config and swaps the estimator model, keeping the current one on error
func (w *watcher) reload() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()

	if closed {
		return
	}

	cfg, err := w.load(w.path)
	if err != nil {
		w.log.Warn().Err(err).Msgf("Ignoring invalid %s, keeping current power model", filepath.Base(w.path))
		return
	}

	model := power.Model{BaseWatts: cfg.Power.BaseWatts, MaxWatts: cfg.Power.MaxWatts}
	if model == w.estimator.Model() {
		return
	}

	w.estimator.SetModel(model)
	w.log.Info().Msgf("Power model reloaded: base %.1fW, max %.1fW", model.BaseWatts, model.MaxWatts)

	w.bus.Publish(bus.Message{
		Type: bus.EventConfigReloaded,
		Data: bus.ConfigReloaded{BaseWatts: model.BaseWatts, MaxWatts: model.MaxWatts},
	})
}

func isRelevantEvent(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename)
}
