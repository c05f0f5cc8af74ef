package commitment

import (
	"crypto/sha256"
	"sync"

	"github.com/tokenlab-xyz/go-tokenlab/chain"
	"github.com/tokenlab-xyz/go-tokenlab/token"
)

// RootCache memoizes merkle roots keyed by a digest of the balance
// state. Recomputing the tree costs one MiMC per node, so callers that
// commit after every call, like the explorer, hit the cache whenever
// state returns to a seen configuration.
type RootCache struct {
	mu        sync.Mutex
	cache     map[[sha256.Size]byte]chain.Hash
	maxSize   int
	hits      int64
	misses    int64
	evictions int64
}

// NewRootCache creates a cache bounded to maxSize entries. When full,
// an arbitrary entry is evicted; zero means unbounded.
func NewRootCache(maxSize int) *RootCache {
	return &RootCache{
		cache:   make(map[[sha256.Size]byte]chain.Hash),
		maxSize: maxSize,
	}
}

// Root returns the memoized root for the state, computing it on a miss.
func (c *RootCache) Root(st *token.State) chain.Hash {
	key := stateKey(st)

	c.mu.Lock()
	if root, ok := c.cache[key]; ok {
		c.hits++
		c.mu.Unlock()
		return root
	}
	c.misses++
	c.mu.Unlock()

	root := Root(st)

	c.mu.Lock()
	if c.maxSize > 0 && len(c.cache) >= c.maxSize {
		for k := range c.cache {
			delete(c.cache, k)
			c.evictions++
			break
		}
	}
	c.cache[key] = root
	c.mu.Unlock()
	return root
}

// Size returns the current number of cached roots.
func (c *RootCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Clear removes all entries.
func (c *RootCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[[sha256.Size]byte]chain.Hash)
}

// Stats reports cache effectiveness.
type Stats struct {
	Size      int
	MaxSize   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

func (c *RootCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:      len(c.cache),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   rate,
	}
}

// stateKey digests the balance state. Holders iterate in fixed address
// order, so equal states always produce equal keys.
func stateKey(st *token.State) [sha256.Size]byte {
	h := sha256.New()
	for _, addr := range st.Holders() {
		h.Write(addr.Bytes())
		b := st.Balances[addr].Bytes32()
		h.Write(b[:])
	}
	var key [sha256.Size]byte
	copy(key[:], h.Sum(nil))
	return key
}
