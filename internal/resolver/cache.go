package resolver

// Cache memoizes album lookups for one run. Hits and misses are both
// cached; a miss is stored as id 0 so repeated plays of an uncatalogued
// album cost one query pair, not one per track.
//
// Each run builds its own Cache, so albums added mid-run by another
// process are picked up no later than the next run.
type Cache struct {
	ids map[string]int64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{ids: make(map[string]int64)}
}

// Get returns the cached album id for key, if present.
func (c *Cache) Get(key string) (int64, bool) {
	id, ok := c.ids[key]
	return id, ok
}

// Put stores the resolution for key.
func (c *Cache) Put(key string, id int64) {
	c.ids[key] = id
}

// Len returns the number of cached resolutions.
func (c *Cache) Len() int {
	return len(c.ids)
}
