package jobview

import (
	"container/list"
	"sync"
	"time"
)

const (
	summaryCacheMaxEntries = 512
	summaryCacheTTL        = 24 * time.Hour
)

// summaryCache is a bounded LRU of generated teasers with per-entry expiry.
type summaryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
}

type summaryEntry struct {
	key       string
	summary   string
	expiresAt time.Time
}

func newSummaryCache(maxEntries int) *summaryCache {
	if maxEntries <= 0 {
		return nil
	}

	return &summaryCache{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

func (c *summaryCache) get(key string, now time.Time) (string, bool) {
	if c == nil || key == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*summaryEntry)
	if now.After(entry.expiresAt) {
		c.removeLocked(elem)

		return "", false
	}

	c.order.MoveToFront(elem)

	return entry.summary, true
}

func (c *summaryCache) set(key, summary string, expiresAt, now time.Time) {
	if c == nil || key == "" || summary == "" || !expiresAt.After(now) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*summaryEntry)
		entry.summary = summary
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	c.entries[key] = c.order.PushFront(&summaryEntry{
		key:       key,
		summary:   summary,
		expiresAt: expiresAt,
	})

	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*summaryEntry).expiresAt) {
			c.removeLocked(elem)
		}
		elem = prev
	}

	for len(c.entries) > c.maxEntries {
		c.removeLocked(c.order.Back())
	}
}

func (c *summaryCache) len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *summaryCache) removeLocked(elem *list.Element) {
	delete(c.entries, elem.Value.(*summaryEntry).key)
	c.order.Remove(elem)
}
