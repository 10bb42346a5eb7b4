// Package inference turns a request record into a ranked family prediction.
//
// A Service is built once from a loaded artifact bundle and is safe for
// concurrent use. It holds no mutable state apart from an optional LRU cache
// of results; because the artifacts are deterministic, a cached result is
// identical to a freshly computed one.
package inference
