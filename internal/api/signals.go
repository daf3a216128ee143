package api

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SignalManager lets an operator interrupt long orchestration runs via
// signal files in the Planforge data directory. A watcher picks signals
// up immediately; direct stat calls act as a polling fallback when the
// watcher could not be started.
type SignalManager struct {
	dir string

	mu         sync.RWMutex
	stopSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalManager creates a signal manager rooted at the given data
// directory (typically ~/.local/share/planforge).
func NewSignalManager(dataDir string) (*SignalManager, error) {
	signalsDir := filepath.Join(dataDir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sm := &SignalManager{
		dir:  signalsDir,
		done: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Continue without watcher - ShouldStop falls back to polling.
		return sm, nil
	}
	sm.watcher = watcher

	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		sm.watcher = nil
		return sm, nil
	}

	go sm.watch()
	return sm, nil
}

func (sm *SignalManager) watch() {
	for {
		select {
		case <-sm.done:
			return
		case event, ok := <-sm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == "stop" &&
				(event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				sm.mu.Lock()
				sm.stopSignal = true
				sm.mu.Unlock()
			}
		case <-sm.watcher.Errors:
			// Ignore errors, keep watching.
		}
	}
}

// ShouldStop returns true if a stop signal has been received.
func (sm *SignalManager) ShouldStop() bool {
	// Check the file directly in case the watcher missed it.
	if _, err := os.Stat(filepath.Join(sm.dir, "stop")); err == nil {
		sm.mu.Lock()
		sm.stopSignal = true
		sm.mu.Unlock()
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stopSignal
}

// SendStop creates the stop signal file.
func (sm *SignalManager) SendStop() error {
	return os.WriteFile(filepath.Join(sm.dir, "stop"),
		[]byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the stop signal file and resets signal state.
func (sm *SignalManager) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.stopSignal = false
	os.Remove(filepath.Join(sm.dir, "stop"))
}

// Close shuts down the signal manager.
func (sm *SignalManager) Close() {
	close(sm.done)
	if sm.watcher != nil {
		sm.watcher.Close()
	}
}
