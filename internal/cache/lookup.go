package cache

import (
	"log/slog"
	"time"

	"github.com/dapperAuteur/kys-rag/internal/model"
)

// Lookup fronts the two cache tiers with a single read-through interface.
// Reads check memory first, then the durable tier, promoting durable hits
// into memory. Durable-tier failures degrade the lookup to memory-only and
// are logged, never surfaced to the caller.
type Lookup struct {
	memory  *MemoryCache
	durable Store
	ttl     time.Duration
	logger  *slog.Logger
}

// NewLookup creates a lookup over the two tiers. durable may be nil for a
// memory-only cache.
func NewLookup(memory *MemoryCache, durable Store, ttl time.Duration, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{memory: memory, durable: durable, ttl: ttl, logger: logger}
}

// Get checks memory, then the durable tier
func (l *Lookup) Get(key string) ([]byte, bool) {
	if val, found := l.memory.Get(key); found {
		return val, true
	}
	if l.durable == nil {
		return nil, false
	}

	val, found, err := l.durable.Get(key)
	if err != nil {
		l.warnDegraded("get", key, err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	// Promote so the next read stays in memory
	_ = l.memory.Set(key, val, l.ttl)
	return val, true
}

// Set writes through both tiers
func (l *Lookup) Set(key string, value []byte) {
	_ = l.memory.Set(key, value, l.ttl)
	if l.durable == nil {
		return
	}
	if err := l.durable.Set(key, value, l.ttl); err != nil {
		l.warnDegraded("set", key, err)
	}
}

// GetOrCompute returns the cached value for key or calls compute, caching
// the result in both tiers. A compute error is returned as is and nothing
// is cached.
func (l *Lookup) GetOrCompute(key string, compute func() ([]byte, error)) ([]byte, error) {
	if val, found := l.Get(key); found {
		return val, nil
	}

	val, err := compute()
	if err != nil {
		return nil, err
	}

	l.Set(key, val)
	return val, nil
}

// Delete removes a key from both tiers
func (l *Lookup) Delete(key string) {
	_ = l.memory.Delete(key)
	if l.durable == nil {
		return
	}
	if err := l.durable.Delete(key); err != nil {
		l.warnDegraded("delete", key, err)
	}
}

func (l *Lookup) warnDegraded(op, key string, err error) {
	degraded := &model.DegradedModeError{Component: "durable cache tier", Err: err}
	l.logger.Warn("cache tier degraded", "op", op, "key", key, "error", degraded)
}
