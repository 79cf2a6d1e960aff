package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryCache is a bounded in-process LRU with per-entry expiry
type MemoryCache struct {
	mu       sync.Mutex
	maxItems int
	ll       *list.List
	items    map[string]*list.Element
	now      func() time.Time
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a cache holding at most maxItems entries
func NewMemoryCache(maxItems int) *MemoryCache {
	if maxItems <= 0 {
		maxItems = 1024
	}
	return &MemoryCache{
		maxItems: maxItems,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get returns a copy of the cached value
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	entry := el.Value.(*memoryEntry)
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.removeElement(el)
		return nil, false, nil
	}
	c.ll.MoveToFront(el)
	return append([]byte(nil), entry.value...), true, nil
}

// Set stores value; ttl <= 0 means no expiry
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}
	stored := append([]byte(nil), value...)

	if el, ok := c.items[key]; ok {
		entry := el.Value.(*memoryEntry)
		entry.value, entry.expiresAt = stored, expiresAt
		c.ll.MoveToFront(el)
		return nil
	}

	c.items[key] = c.ll.PushFront(&memoryEntry{key: key, value: stored, expiresAt: expiresAt})
	for c.ll.Len() > c.maxItems {
		c.removeElement(c.ll.Back())
	}
	return nil
}

// Len returns the number of entries, expired ones included until they are touched
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Close drops every entry
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	return nil
}

func (c *MemoryCache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*memoryEntry).key)
}
