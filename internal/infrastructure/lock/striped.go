// Package lock provides the per-customer mutual exclusion used by the
// identity, cart and checkout services.
package lock

import (
	"hash/fnv"
	"sync"

	"github.com/cos/backend/internal/domain/shared"
)

// DefaultStripes is the stripe count used when none is configured
const DefaultStripes = 256

// StripedLocker maps keys onto a fixed set of mutexes by hash. Two keys share
// a mutex only on a hash collision, so work for different customers rarely
// waits. A goroutine must not hold two keys at once.
type StripedLocker struct {
	stripes []sync.Mutex
	mask    uint64
}

// NewStripedLocker creates a locker with n stripes, rounded up to a power of two
func NewStripedLocker(n int) *StripedLocker {
	if n <= 0 {
		n = DefaultStripes
	}
	n = nextPowerOfTwo(n)
	return &StripedLocker{
		stripes: make([]sync.Mutex, n),
		mask:    uint64(n - 1),
	}
}

// Lock blocks until the key's stripe is held and returns its release func.
// The release func is safe to call more than once.
func (l *StripedLocker) Lock(key string) func() {
	mu := &l.stripes[l.index(key)]
	mu.Lock()
	var once sync.Once
	return func() { once.Do(mu.Unlock) }
}

func (l *StripedLocker) index(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64() & l.mask
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

var _ shared.KeyLocker = (*StripedLocker)(nil)
