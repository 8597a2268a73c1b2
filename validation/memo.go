package validation

import (
	"sync"

	"github.com/esimov/avatar/identity"
)

// Memo is the process local tier. It lives for a single request and is never
// shared between requests; entries do not expire.
type Memo struct {
	mu sync.RWMutex
	m  map[identity.Hash]Result
}

// NewMemo returns an empty memo.
func NewMemo() *Memo {
	return &Memo{m: make(map[identity.Hash]Result)}
}

// Get returns the memoized result of h.
func (m *Memo) Get(h identity.Hash) (Result, bool) {
	if m == nil {
		return Result{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.m[h]
	return r, ok
}

// Put memoizes r. Indeterminate results are ignored.
func (m *Memo) Put(h identity.Hash, r Result) {
	if m == nil || !r.Cacheable() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[h] = r
}

// Len returns the number of memoized results.
func (m *Memo) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.m)
}
