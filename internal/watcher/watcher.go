package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher re-runs a callback whenever one watched source file changes,
// with debouncing so editor save bursts trigger a single run.
type FileWatcher interface {
	// Start begins watching, calling callback after each debounced change.
	Start(ctx context.Context, callback func()) error

	// Stop stops the watcher and cleans up resources.
	Stop() error
}

type fileWatcher struct {
	watcher      *fsnotify.Watcher
	path         string        // absolute path of the watched file
	debounceTime time.Duration // quiet period before firing callback
	callback     func()
	ctx          context.Context
	cancel       context.CancelFunc
	timer        *time.Timer
	timerMu      sync.Mutex
	stopOnce     sync.Once
	doneCh       chan struct{}
}

// New creates a watcher for a single source file. The containing directory
// is watched rather than the file itself, so atomic saves (write to a temp
// file, rename over the original) are still observed.
func New(path string) (FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &fileWatcher{
		watcher:      w,
		path:         abs,
		debounceTime: 500 * time.Millisecond,
		doneCh:       make(chan struct{}),
	}, nil
}

func (fw *fileWatcher) Start(ctx context.Context, callback func()) error {
	if callback == nil {
		return nil
	}
	fw.callback = callback
	fw.ctx, fw.cancel = context.WithCancel(ctx)

	go fw.watch()
	return nil
}

func (fw *fileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		if fw.cancel != nil {
			fw.cancel()
			<-fw.doneCh
		} else {
			close(fw.doneCh)
		}
		err = fw.watcher.Close()
	})
	return err
}

func (fw *fileWatcher) watch() {
	defer close(fw.doneCh)

	for {
		select {
		case <-fw.ctx.Done():
			fw.cancelTimer()
			return

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.resetTimer()

		case _, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			// fsnotify errors are transient here; the next event still
			// retriggers a run, so nothing to do.
		}
	}
}

// resetTimer (re)arms the debounce timer; the callback fires only after a
// quiet period with no further events.
func (fw *fileWatcher) resetTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounceTime, func() {
		select {
		case <-fw.ctx.Done():
		default:
			fw.callback()
		}
	})
}

func (fw *fileWatcher) cancelTimer() {
	fw.timerMu.Lock()
	defer fw.timerMu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
		fw.timer = nil
	}
}
