package lru

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Config 配置缓存的容量与存活时间。
type Config struct {
	// Capacity 是缓存的最大条目数，必须大于 0。
	Capacity int
	// TTL 是条目的存活时间，为 0 时永不过期。
	TTL time.Duration
	// Now 为 nil 时使用 time.Now。
	Now func() time.Time
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Cache 是一个并发安全、按最近使用淘汰的定长缓存，过期条目在读取时被动删除。
type Cache[K comparable, V any] struct {
	cfg   Config
	ll    *list.List
	items map[K]*list.Element
	mu    sync.Mutex
}

// New 创建缓存。
func New[K comparable, V any](cfg Config) (*Cache[K, V], error) {
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("缓存容量必须大于 0: %d", cfg.Capacity)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache[K, V]{cfg: cfg, ll: list.New(), items: make(map[K]*list.Element)}, nil
}

// MustNew 与 New 相同，配置无效时 panic，用于容量为常量的场景。
func MustNew[K comparable, V any](cfg Config) *Cache[K, V] {
	c, err := New[K, V](cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Get 返回 key 对应的值，并将其标记为最近使用。
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.remove(el)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return e.value, true
}

// Put 写入或覆盖 key，超出容量时淘汰最久未使用的条目。
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.cfg.TTL > 0 {
		expiresAt = c.cfg.Now().Add(c.cfg.TTL)
	}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	for c.ll.Len() > c.cfg.Capacity {
		c.remove(c.ll.Back())
	}
}

// Remove 删除 key，不存在时什么也不做。
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Len 返回当前条目数，包含尚未被动删除的过期条目。
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache[K, V]) expired(e *entry[K, V]) bool {
	return c.cfg.TTL > 0 && c.cfg.Now().After(e.expiresAt)
}

// 调用方需持有锁。
func (c *Cache[K, V]) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry[K, V]).key)
}
