// Package circuitbreaker stops a client from hammering a classifier server
// that keeps failing.
//
// A breaker has three states:
//
//   - CLOSED: requests pass through
//   - OPEN: the server is failing, requests are refused locally
//   - HALF-OPEN: a single probe request tests whether it recovered
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.GetBreaker("http://localhost:5000")
//	if !cb.Allow() {
//	    return circuitbreaker.ErrOpen
//	}
//	if err := call(); err != nil {
//	    cb.RecordFailure()
//	} else {
//	    cb.RecordSuccess()
//	}
package circuitbreaker
