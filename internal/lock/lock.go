// Package lock serializes Cordova invocations per project.
//
// A Registry hands out one lock per project id, created on first use and
// kept for the life of the registry. At most one Handle per project id is
// outstanding at any time; later callers block in Acquire until it is
// released or their context ends. Locks are not reentrant.
package lock

import (
	"context"
	"sync"
)

// Registry maps project ids to their locks.
type Registry struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]chan struct{})}
}

// lockFor returns the lock for id, creating it under the registry mutex.
func (r *Registry) lockFor(id string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		r.locks[id] = l
	}
	return l
}

// Acquire blocks until the lock for id is held or ctx is done.
func (r *Registry) Acquire(ctx context.Context, id string) (*Handle, error) {
	l := r.lockFor(id)

	// Prefer a free lock over an already-cancelled context.
	select {
	case l <- struct{}{}:
		return &Handle{id: id, lock: l}, nil
	default:
	}

	select {
	case l <- struct{}{}:
		return &Handle{id: id, lock: l}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire takes the lock for id only if it is free.
func (r *Registry) TryAcquire(id string) (*Handle, bool) {
	l := r.lockFor(id)
	select {
	case l <- struct{}{}:
		return &Handle{id: id, lock: l}, true
	default:
		return nil, false
	}
}

// Held reports whether the lock for id is currently held.
func (r *Registry) Held(id string) bool {
	r.mu.Lock()
	l, ok := r.locks[id]
	r.mu.Unlock()
	return ok && len(l) == 1
}

// Len returns the number of projects that have a lock.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// Handle is a held project lock.
type Handle struct {
	id   string
	lock chan struct{}
	once sync.Once
}

// ID returns the project id the handle locks.
func (h *Handle) ID() string {
	return h.id
}

// Release frees the lock. Calls after the first are no-ops.
func (h *Handle) Release() {
	h.once.Do(func() {
		<-h.lock
	})
}
