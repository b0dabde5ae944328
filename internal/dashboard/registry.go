package dashboard

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Factory builds the view for a session id.
type Factory func(id string) *View

// Registry keeps one view per session and closes views that sit idle
// longer than the ttl.
type Registry struct {
	cache   *cache.Cache
	ttl     time.Duration
	factory Factory
	log     *zap.Logger

	mu sync.Mutex
}

// NewRegistry returns an empty registry.
func NewRegistry(ttl time.Duration, factory Factory, log *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return newRegistry(ttl, ttl/2, factory, log)
}

// newRegistry sets the janitor interval; below one, expired views are only
// collected by Acquire and Close.
func newRegistry(ttl, cleanup time.Duration, factory Factory, log *zap.Logger) *Registry {
	r := &Registry{
		cache:   cache.New(ttl, cleanup),
		ttl:     ttl,
		factory: factory,
		log:     log.Named("views"),
	}
	r.cache.OnEvicted(func(id string, v any) {
		if view, ok := v.(*View); ok {
			view.Close()
		}
		r.log.Debug("view evicted", zap.String("view", id))
	})
	return r
}

// Acquire returns the session's view, creating it on first use, and resets
// its idle timer.
func (r *Registry) Acquire(id string) *View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache.Get(id); ok {
		view := v.(*View)
		if !view.isClosed() {
			r.cache.Set(id, view, r.ttl)
			return view
		}
	}
	// Get misses expired items the janitor has not collected yet, and Set
	// would overwrite them without OnEvicted. Delete evicts them first.
	r.cache.Delete(id)
	view := r.factory(id)
	r.cache.Set(id, view, r.ttl)
	return view
}

// Touch resets the idle timer of a live view.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache.Get(id); ok {
		r.cache.Set(id, v, r.ttl)
	}
}

// Drop closes and forgets the session's view.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(id)
}

// Len reports how many views are held.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close closes every view.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.DeleteExpired()
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
