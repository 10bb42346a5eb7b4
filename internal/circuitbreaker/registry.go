package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per server so clients that talk to the
// same server share its failure history.
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

	if cb, exists = r.breakers[serverURL]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.threshold, r.timeout)
	r.breakers[serverURL] = cb
	return cb
}

// States reports the current state of every known breaker.
func (r *Registry) States() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for url, cb := range r.breakers {
		states[url] = cb.State()
	}
	return states
}
