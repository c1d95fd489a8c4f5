package engine

import (
	"slices"
	"sync"

	"github.com/yourusername/nardengine/pkg/nard"
)

// DefaultCacheSize is the default number of cached legal-move lists.
const DefaultCacheSize = 1 << 14

// CacheKey identifies a move-generation query: a position, the player to
// move and the pending dice.
type CacheKey struct {
	Slots    [nard.NumPoints]int8
	WhiteOff int8
	BlackOff int8
	Player   nard.Player
	Dice     [4]int8 // 0 for unused
}

// MakeCacheKey builds the key for a query. Dice beyond four are ignored.
func MakeCacheKey(pos nard.Position, p nard.Player, dice []int) CacheKey {
	k := CacheKey{
		WhiteOff: int8(pos.WhiteOff),
		BlackOff: int8(pos.BlackOff),
		Player:   p,
	}
	for i, v := range pos.Slots {
		k.Slots[i] = int8(v)
	}
	for i := 0; i < len(dice) && i < len(k.Dice); i++ {
		k.Dice[i] = int8(dice[i])
	}
	return k
}

// cacheEntry stores one cached move list
type cacheEntry struct {
	key   CacheKey
	valid bool
	moves []nard.Move
}

// cacheNode holds primary and secondary entries for two-way associative cache
type cacheNode struct {
	primary   cacheEntry
	secondary cacheEntry
}

// MoveCache is a thread-safe cache of legal-move lists.
// Uses a two-way associative cache with MurmurHash3-based indexing
type MoveCache struct {
	entries  []cacheNode
	size     uint32
	hashMask uint32

	// Statistics
	lookups uint64
	hits    uint64
	adds    uint64

	mu sync.Mutex
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Size    uint32  `json:"size"`
	Lookups uint64  `json:"lookups"`
	Hits    uint64  `json:"hits"`
	Adds    uint64  `json:"adds"`
	HitRate float64 `json:"hit_rate"`
}

// NewMoveCache creates a new cache with the given size
// Size will be adjusted to the nearest power of 2 (minimum 2)
func NewMoveCache(size uint32) *MoveCache {
	if size > 1<<24 {
		size = 1 << 24
	}

	p := uint32(2)
	for p < size {
		p <<= 1
	}
	size = p

	return &MoveCache{
		entries:  make([]cacheNode, size/2),
		size:     size,
		hashMask: (size / 2) - 1,
	}
}

// Flush clears all entries from the cache
func (c *MoveCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.lookups = 0
	c.hits = 0
	c.adds = 0
}

// hash computes the slot for a key using MurmurHash3-style mixing
func (c *MoveCache) hash(key CacheKey) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	mix := func(h, k uint32) uint32 {
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
		h = (h << 13) | (h >> 19)
		return h*5 + 0xe6546b64
	}

	h := uint32(0)
	for i := 0; i < len(key.Slots); i += 4 {
		k := uint32(uint8(key.Slots[i])) |
			uint32(uint8(key.Slots[i+1]))<<8 |
			uint32(uint8(key.Slots[i+2]))<<16 |
			uint32(uint8(key.Slots[i+3]))<<24
		h = mix(h, k)
	}
	h = mix(h, uint32(uint8(key.WhiteOff))|uint32(uint8(key.BlackOff))<<8|uint32(key.Player)<<16)
	h = mix(h, uint32(uint8(key.Dice[0]))|uint32(uint8(key.Dice[1]))<<8|
		uint32(uint8(key.Dice[2]))<<16|uint32(uint8(key.Dice[3]))<<24)

	// Finalization
	h ^= 32
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h & c.hashMask
}

// Lookup returns a copy of the cached moves for key.
func (c *MoveCache) Lookup(key CacheKey) ([]nard.Move, bool) {
	slot := c.hash(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++
	node := &c.entries[slot]

	if node.primary.valid && node.primary.key == key {
		c.hits++
		return slices.Clone(node.primary.moves), true
	}
	if node.secondary.valid && node.secondary.key == key {
		// Promote to primary
		node.primary, node.secondary = node.secondary, node.primary
		c.hits++
		return slices.Clone(node.primary.moves), true
	}
	return nil, false
}

// Add stores moves for key, demoting the current primary entry of its slot.
func (c *MoveCache) Add(key CacheKey, moves []nard.Move) {
	slot := c.hash(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.entries[slot]
	node.secondary = node.primary
	node.primary = cacheEntry{key: key, valid: true, moves: slices.Clone(moves)}
	c.adds++
}

// Stats returns cache statistics
func (c *MoveCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CacheStats{Size: c.size, Lookups: c.lookups, Hits: c.hits, Adds: c.adds}
	if c.lookups > 0 {
		s.HitRate = float64(c.hits) / float64(c.lookups) * 100
	}
	return s
}
