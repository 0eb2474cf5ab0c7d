package state

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// VisitedSet records the item ids entered during one request. A Bloom filter
// answers the common "not seen" case; the exact map settles positives.
type VisitedSet struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// NewVisitedSet creates a visited set sized for estimatedItems ids.
func NewVisitedSet(estimatedItems int) *VisitedSet {
	if estimatedItems < 256 {
		estimatedItems = 256
	}

	return &VisitedSet{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// TryVisit inserts id if it is absent and reports whether this call inserted
// it. Concurrent callers racing on the same id see exactly one true.
func (v *VisitedSet) TryVisit(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.exact[id]; exists {
		return false
	}
	v.filter.AddString(id)
	v.exact[id] = struct{}{}
	return true
}

// HasVisited checks if id has been visited.
func (v *VisitedSet) HasVisited(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if !v.filter.TestString(id) {
		return false
	}
	_, exists := v.exact[id]
	return exists
}

// Count returns the number of visited ids.
func (v *VisitedSet) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.exact)
}
