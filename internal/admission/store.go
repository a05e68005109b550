// Package admission gates externally triggered operations: sliding-window
// plus burst rate limiting per (caller, action type), with heavy requests
// deferred to a bounded background executor.
package admission

import (
	"sync"
	"time"
)

// Window is the per-key rate limit state: a fixed window counter plus the
// recent timestamps used for the burst check. Counters never go negative
// and only grow within a window.
type Window struct {
	Start  time.Time
	Count  int64
	Recent []time.Time
}

// CounterStore holds rate limit windows keyed by (caller, action). Update
// must serialize concurrent calls for the same key, so two simultaneous
// requests can never both read the same pre-increment count. A durable
// implementation (e.g. Redis INCR with expiry) can replace the in-memory
// one; the controller fails open when the store errors.
type CounterStore interface {
	Update(key string, fn func(w *Window)) error
}

// MemoryCounterStore is the in-process CounterStore
type MemoryCounterStore struct {
	mu      sync.Mutex
	windows map[string]*keyedWindow
}

type keyedWindow struct {
	mu     sync.Mutex
	window Window
}

// NewMemoryCounterStore creates an empty store
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{windows: make(map[string]*keyedWindow)}
}

// Update runs fn under the key's lock
func (s *MemoryCounterStore) Update(key string, fn func(w *Window)) error {
	s.mu.Lock()
	kw, exists := s.windows[key]
	if !exists {
		kw = &keyedWindow{}
		s.windows[key] = kw
	}
	s.mu.Unlock()

	kw.mu.Lock()
	defer kw.mu.Unlock()
	fn(&kw.window)
	return nil
}
