package mapeditor

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// AutoSaver writes an editor's state to a KVStore a fixed delay after the
// last change. Writes are skipped when the state equals what was last
// written, and the state is read at write time, so a late timer can never
// overwrite newer data with an older snapshot. Failures are logged only.
type AutoSaver struct {
	editor *Editor
	kv     KVStore
	key    string
	delay  time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	timer       *time.Timer
	closed      bool
	unsubscribe func()

	writeMu     sync.Mutex
	lastWritten []byte
}

func NewAutoSaver(editor *Editor, kv KVStore, key string, delay time.Duration, logger *slog.Logger) *AutoSaver {
	if logger == nil {
		logger = slog.Default()
	}
	a := &AutoSaver{
		editor: editor,
		kv:     kv,
		key:    key,
		delay:  delay,
		logger: logger.With("component", "autosave", "key", key),
	}
	a.unsubscribe = editor.OnChange(a.Notify)
	return a
}

// Notify restarts the debounce window.
func (a *AutoSaver) Notify() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *AutoSaver) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	if a.isClosed() {
		return
	}
	if _, err := a.flush(ctx); err != nil {
		a.logger.Error("Auto-save failed", "error", err)
	}
}

func (a *AutoSaver) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Flush writes the current state if it changed since the last successful
// write. It reports whether a write happened.
func (a *AutoSaver) Flush(ctx context.Context) (bool, error) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return a.flush(ctx)
}

// flush requires writeMu.
func (a *AutoSaver) flush(ctx context.Context) (bool, error) {
	state := a.editor.State()
	fingerprint, err := json.Marshal(state)
	if err != nil {
		return false, err
	}
	if a.lastWritten != nil && bytes.Equal(fingerprint, a.lastWritten) {
		a.logger.Debug("Auto-save skipped, state unchanged")
		return false, nil
	}

	data, err := Serialize(state, a.editor.opts.Now())
	if err != nil {
		return false, err
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		return false, err
	}

	a.lastWritten = fingerprint
	a.logger.Debug("Auto-save written", "bytes", len(data), "cities", len(state.Cities))
	return true, nil
}

// Close stops the timer and detaches from the editor. A pending write is
// dropped, and a write already in progress completes before Close returns.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.unsubscribe()
	a.mu.Unlock()

	a.writeMu.Lock()
	a.writeMu.Unlock()
}
