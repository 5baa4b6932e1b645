// ABOUTME: Bounded LRU of match results keyed by the exact input string
// ABOUTME: Not synchronized; the Matcher guards it with its own mutex

package intent

import "container/list"

// DefaultCacheCapacity is the number of distinct inputs kept when the
// matcher config leaves the capacity unset.
const DefaultCacheCapacity = 100

type cacheEntry struct {
	key     string
	matches []IntentMatch
}

// resultCache is an O(1) LRU: a map into a recency list, front = newest.
type resultCache struct {
	items    map[string]*list.Element
	order    *list.List
	capacity int
}

func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &resultCache{
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// get returns the cached matches and promotes the entry.
func (c *resultCache) get(key string) ([]IntentMatch, bool) {
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).matches, true
}

// put stores matches, evicting the least recently used entry when full.
func (c *resultCache) put(key string, matches []IntentMatch) {
	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheEntry).matches = matches
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.capacity {
		if back := c.order.Back(); back != nil {
			c.order.Remove(back)
			delete(c.items, back.Value.(*cacheEntry).key)
		}
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, matches: matches})
}

func (c *resultCache) clear() {
	clear(c.items)
	c.order.Init()
}

func (c *resultCache) len() int {
	return c.order.Len()
}
