package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per upstream server URL. Breakers are
// created lazily; servers that leave the pool after an online-config
// replace simply leave an idle breaker behind until Prune is called.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

func (r *Registry) GetBreaker(serverURL string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[serverURL]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[serverURL]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.threshold, r.timeout)
	r.breakers[serverURL] = cb
	return cb
}

// Prune drops breakers for servers that are no longer in the active set.
func (r *Registry) Prune(activeURLs map[string]struct{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for url := range r.breakers {
		if _, ok := activeURLs[url]; !ok {
			delete(r.breakers, url)
		}
	}
}

func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for url, cb := range r.breakers {
		stats[url] = cb.State()
	}
	return stats
}
