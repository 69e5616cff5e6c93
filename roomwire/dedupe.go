package roomwire

// DedupCache remembers recently delivered message ids so transport echoes
// and duplicate deliveries are suppressed. The bound is FIFO: eviction
// follows insertion order, not access order. The cache itself does no
// locking; callers serialize access on the dispatch timeline.
type DedupCache struct {
	limit int
	order []string
	ids   map[string]struct{}
}

const defaultDedupeLimit = 200

// NewDedupCache returns a cache bounded to limit ids. Non-positive limits
// fall back to the default of 200.
func NewDedupCache(limit int) *DedupCache {
	if limit <= 0 {
		limit = defaultDedupeLimit
	}
	return &DedupCache{
		limit: limit,
		ids:   make(map[string]struct{}, limit),
	}
}

// Seen reports whether id is recorded. Pure query, no mutation.
func (c *DedupCache) Seen(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Record inserts id, evicting the oldest inserted id once the bound is
// exceeded. Recording an already-present id keeps its original position.
func (c *DedupCache) Record(id string) {
	if _, ok := c.ids[id]; ok {
		return
	}
	c.ids[id] = struct{}{}
	c.order = append(c.order, id)
	if len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.ids, oldest)
	}
}

// Clear empties the cache. Invoked on every room join so ids from a
// previous room cannot suppress legitimate messages in the new one.
func (c *DedupCache) Clear() {
	c.order = c.order[:0]
	c.ids = make(map[string]struct{}, c.limit)
}

// Len returns the number of recorded ids.
func (c *DedupCache) Len() int {
	return len(c.ids)
}
