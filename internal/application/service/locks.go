package service

import "sync"

// requestLocks serializes transitions per request id. Two concurrent
// transitions on the same request cannot interleave their
// read-validate-write sequences; different requests proceed in parallel.
type requestLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newRequestLocks() *requestLocks {
	return &requestLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires the mutex for the id and returns its unlock function.
func (r *requestLocks) lock(id int64) func() {
	r.mu.Lock()
	m, ok := r.locks[id]
	if !ok {
		m = &sync.Mutex{}
		r.locks[id] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}
