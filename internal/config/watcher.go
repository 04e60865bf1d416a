package config

import (
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/opencode-ai/mcp-gateway/internal/logging"
	"github.com/opencode-ai/mcp-gateway/internal/notify"
)

// Watcher hot-reloads the gateway's config file, adapted from the teacher's
// internal/vcs/watcher.go (which watches .git/HEAD for branch changes) to
// instead watch the resolved config file path and republish a
// notify.ConfigChanged event on write.
type Watcher struct {
	fsw       *fsnotify.Watcher
	directory string
	path      string

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a config watcher for the given directory's project
// config file. Returns nil (not an error) if no config file exists there
// yet, mirroring the teacher's "not a git repo" nil-return convention.
func NewWatcher(directory string) (*Watcher, error) {
	path := ProjectConfigPath(directory)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, nil
	}

	return &Watcher{
		fsw:       fsw,
		directory: directory,
		path:      path,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start begins watching in the background.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)
	for {
		select {
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				cfg, err := Load(w.directory)
				if err != nil {
					logging.Warn().Err(err).Msg("config watcher: reload failed")
					continue
				}
				notify.Publish(notify.Event{Type: notify.ConfigChanged, Payload: cfg})
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn().Err(err).Msg("config watcher: fsnotify error")
		case <-w.stopCh:
			return
		}
	}
}

// Stop stops watching and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	close(w.stopCh)
	<-w.doneCh
	_ = w.fsw.Close()
}
