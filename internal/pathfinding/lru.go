package pathfinding

// lruEntry is one slot in an index-linked list: prev/next point to other
// slot indices, -1 meaning "no neighbor". Kept as a flat array so touch and
// evict never allocate, mirroring the existing fixed-capacity ring
// patterns elsewhere in the codebase.
type lruEntry struct {
	prev, next int32
	key        interface{}
	value      interface{}
	used       bool
}

// lruCache is a generic fixed-capacity, zero-allocation-after-warmup LRU
// keyed by arbitrary comparable values (flow-field cache keys are structs
// of ints, zone ids, or hashes — all comparable).
type lruCache struct {
	capacity   int
	entries    []lruEntry
	index      map[interface{}]int32
	head, tail int32 // head = most recently used, tail = least
	freeHead   int32
}

const lruNil = int32(-1)

func newLRUCache(capacity int) *lruCache {
	c := &lruCache{
		capacity: capacity,
		entries:  make([]lruEntry, capacity),
		index:    make(map[interface{}]int32, capacity),
		head:     lruNil,
		tail:     lruNil,
		freeHead: 0,
	}
	for i := 0; i < capacity; i++ {
		c.entries[i].prev = lruNil
		if i+1 < capacity {
			c.entries[i].next = int32(i + 1)
		} else {
			c.entries[i].next = lruNil
		}
	}
	return c
}

func (c *lruCache) unlink(i int32) {
	e := &c.entries[i]
	if e.prev != lruNil {
		c.entries[e.prev].next = e.next
	} else {
		c.head = e.next
	}
	if e.next != lruNil {
		c.entries[e.next].prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = lruNil, lruNil
}

func (c *lruCache) pushFront(i int32) {
	e := &c.entries[i]
	e.prev = lruNil
	e.next = c.head
	if c.head != lruNil {
		c.entries[c.head].prev = i
	}
	c.head = i
	if c.tail == lruNil {
		c.tail = i
	}
}

// Get returns the cached value for key and marks it most-recently-used.
func (c *lruCache) Get(key interface{}) (interface{}, bool) {
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.unlink(i)
	c.pushFront(i)
	return c.entries[i].value, true
}

// Put inserts or updates key, evicting the least-recently-used entry if the
// cache is at capacity and key is new. Returns the evicted key, if any.
func (c *lruCache) Put(key, value interface{}) (evictedKey interface{}, evicted bool) {
	if i, ok := c.index[key]; ok {
		c.entries[i].value = value
		c.unlink(i)
		c.pushFront(i)
		return nil, false
	}

	var slot int32
	if c.freeHead != lruNil {
		slot = c.freeHead
		c.freeHead = c.entries[slot].next
	} else {
		// At capacity: evict the tail.
		slot = c.tail
		evictedKey = c.entries[slot].key
		evicted = true
		delete(c.index, evictedKey)
		c.unlink(slot)
	}
	c.entries[slot] = lruEntry{key: key, value: value, used: true, prev: lruNil, next: lruNil}
	c.index[key] = slot
	c.pushFront(slot)
	return evictedKey, evicted
}

// Clear empties the cache without releasing the backing array.
func (c *lruCache) Clear() {
	for i := 0; i < c.capacity; i++ {
		c.entries[i] = lruEntry{prev: lruNil, next: lruNil}
		if i+1 < c.capacity {
			c.entries[i].next = int32(i + 1)
		} else {
			c.entries[i].next = lruNil
		}
	}
	c.index = make(map[interface{}]int32, c.capacity)
	c.head, c.tail = lruNil, lruNil
	c.freeHead = 0
}

func (c *lruCache) Len() int { return len(c.index) }

// zonePathKey identifies a cached zone-to-zone A* result.
type zonePathKey struct {
	start, dest ZoneID
}

// zonePathCache caches recent zone-level paths, adapted from the existing rank-by-score leaderboard
// cache into a rank-by-recency cache.
type zonePathCache struct {
	lru *lruCache
}

func newZonePathCache(capacity int) *zonePathCache {
	return &zonePathCache{lru: newLRUCache(capacity)}
}

func (c *zonePathCache) get(start, dest ZoneID) ([]ZoneID, bool) {
	v, ok := c.lru.Get(zonePathKey{start, dest})
	if !ok {
		return nil, false
	}
	return v.([]ZoneID), true
}

func (c *zonePathCache) put(start, dest ZoneID, path []ZoneID) {
	c.lru.Put(zonePathKey{start, dest}, path)
}

func (c *zonePathCache) clear() {
	c.lru.Clear()
}
