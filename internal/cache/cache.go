package cache

import (
	"container/list"
	"sync"
	"time"
)

// TTLCache is a size-bounded cache with per-entry expiry. Reads refresh
// recency, so eviction under pressure drops the least recently used key.
type TTLCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List

	janitorStop chan struct{}
	janitorDone chan struct{}
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

func NewTTLCache[T any](maxSize int, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.entries[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
}

func (c *TTLCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CleanExpired removes every expired entry and reports how many went.
func (c *TTLCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			c.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// caller holds c.mu
func (c *TTLCache[T]) remove(elem *list.Element) {
	delete(c.entries, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}

// StartJanitor sweeps expired entries every interval until StopJanitor.
func (c *TTLCache[T]) StartJanitor(interval time.Duration) {
	c.janitorStop = make(chan struct{})
	c.janitorDone = make(chan struct{})
	go func() {
		defer close(c.janitorDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-c.janitorStop:
				return
			}
		}
	}()
}

func (c *TTLCache[T]) StopJanitor() {
	if c.janitorStop != nil {
		close(c.janitorStop)
		<-c.janitorDone
	}
}
