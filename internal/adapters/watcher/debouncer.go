// Package watcher re-triggers pipeline runs when watched inputs change.
package watcher

import (
	"slices"
	"sync"
	"time"
)

// DefaultDebounceWindow is how long the debouncer waits for more events before firing.
const DefaultDebounceWindow = 500 * time.Millisecond

// Debouncer coalesces rapid file system events into batches of distinct paths.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	batches chan []string
}

// NewDebouncer creates a debouncer firing window after the last added path.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		batches: make(chan []string, 1),
	}
}

// Batches delivers the coalesced, sorted paths. A batch is merged into a pending,
// unconsumed one rather than queued behind it.
func (d *Debouncer) Batches() <-chan []string {
	return d.batches
}

// Add records path and restarts the window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.Flush)
}

// Flush delivers pending paths immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.pending) == 0 {
		return
	}

	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	clear(d.pending)

	select {
	case prev := <-d.batches:
		paths = append(paths, prev...)
	default:
	}
	slices.Sort(paths)
	d.batches <- slices.Compact(paths)
}
