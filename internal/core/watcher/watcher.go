package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"importcycles/internal/shared/observability"
	"importcycles/internal/shared/util"

	"github.com/fsnotify/fsnotify"
)

// editorNoise is ignored in addition to the configured excludes.
var editorNoise = []string{"*.swp", "*.swx", "*~", ".#*", "4913"}

type Options struct {
	Debounce   time.Duration
	Extensions []string
	Exclude    *util.GlobSet
	Logger     *slog.Logger
}

// Watcher reports batches of changed source files once no further change has
// arrived for the debounce period. Directories are watched non-recursively.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	debounce   time.Duration
	extFilters map[string]bool
	exclude    *util.GlobSet
	noise      *util.GlobSet
	logger     *slog.Logger
	onChange   func([]string)
	callbackMu sync.Mutex

	watchedMu sync.Mutex
	watched   map[string]bool
	startOnce sync.Once

	pending   map[string]struct{}
	pendingMu sync.Mutex
	timer     *time.Timer
}

func New(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil || opts.Debounce <= 0 {
		return nil, os.ErrInvalid
	}
	noise, err := util.CompileGlobs(editorNoise)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	extFilters := make(map[string]bool, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized != "" {
			extFilters[normalized] = true
		}
	}

	return &Watcher{
		fsWatcher:  fsw,
		debounce:   opts.Debounce,
		extFilters: extFilters,
		exclude:    opts.Exclude,
		noise:      noise,
		logger:     logger,
		onChange:   onChange,
		watched:    make(map[string]bool),
		pending:    make(map[string]struct{}),
	}, nil
}

// Watch adds the directories not watched yet and starts the event loop on
// first use. It can be called again after every analysis run.
func (w *Watcher) Watch(dirs []string) error {
	w.watchedMu.Lock()
	for _, dir := range dirs {
		if w.watched[dir] {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			w.watchedMu.Unlock()
			return err
		}
		w.watched[dir] = true
		w.logger.Debug("watching directory", "path", dir)
	}
	w.watchedMu.Unlock()

	w.startOnce.Do(func() { go w.run() })
	return nil
}

// Watched returns the watched directories in sorted order.
func (w *Watcher) Watched() []string {
	w.watchedMu.Lock()
	defer w.watchedMu.Unlock()
	return util.SortedStringKeys(w.watched)
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if w.shouldExcludeFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleChange(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	if w.noise.MatchBase(path) || w.exclude.Match(path) {
		return true
	}
	if len(w.extFilters) == 0 {
		return false
	}
	return !w.extFilters[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}
