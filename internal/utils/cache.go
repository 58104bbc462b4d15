package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// CacheItem 包装实际的数据，记录写入时间和过期时间
type CacheItem[T any] struct {
	Value     T
	StoredAt  time.Time
	ExpiredAt time.Time
}

// TTLCache 基于 go-cache 的定时过期缓存，不限制条数
// 读取时按注入的时钟判断是否过期，go-cache 的后台清理只负责回收内存
type TTLCache[T any] struct {
	storage *cache.Cache
	ttl     time.Duration
	now     func() time.Time
}

// NewTTLCache 创建缓存，清理间隔为 ttl 的两倍
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		storage: cache.New(ttl, 2*ttl),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock 替换时钟（测试用）
func (c *TTLCache[T]) WithClock(now func() time.Time) *TTLCache[T] {
	c.now = now
	return c
}

// TTL 有效期
func (c *TTLCache[T]) TTL() time.Duration {
	return c.ttl
}

// Set 写入
func (c *TTLCache[T]) Set(key string, value T) {
	now := c.now()
	c.storage.Set(key, CacheItem[T]{
		Value:     value,
		StoredAt:  now,
		ExpiredAt: now.Add(c.ttl),
	}, c.ttl)
}

// Get 读取，过期视为未命中并删除
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	raw, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	item, ok := raw.(CacheItem[T])
	if !ok {
		return zero, false
	}
	if !c.now().Before(item.ExpiredAt) {
		c.storage.Delete(key)
		return zero, false
	}
	return item.Value, true
}

// Delete 删除
func (c *TTLCache[T]) Delete(key string) {
	c.storage.Delete(key)
}

// Clear 清空
func (c *TTLCache[T]) Clear() {
	c.storage.Flush()
}

// Len 当前条数（可能包含尚未清理的过期项）
func (c *TTLCache[T]) Len() int {
	return c.storage.ItemCount()
}

// LRUCache 有容量上限的缓存，条目带过期时间
type LRUCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewLRUCache 初始化，size 是最大缓存条数，ttl 是数据有效期
func NewLRUCache[T any](size int, ttl time.Duration) *LRUCache[T] {
	if size <= 0 {
		size = 1
	}
	// lru.New 是线程安全的，size > 0 时不会返回错误
	c, _ := lru.New[string, CacheItem[T]](size)
	return &LRUCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入（已存在则更新）
func (c *LRUCache[T]) Set(key string, value T) {
	now := time.Now()
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		StoredAt:  now,
		ExpiredAt: now.Add(c.ttl),
	})
}

// Get 读取（带过期检查）
func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}

// Delete 删除
func (c *LRUCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

// Len 当前条数
func (c *LRUCache[T]) Len() int {
	return c.storage.Len()
}

// Keys 从旧到新的所有 key
func (c *LRUCache[T]) Keys() []string {
	return c.storage.Keys()
}

// DeleteExpired 清理已过期的条目
func (c *TTLCache[T]) DeleteExpired() {
	c.storage.DeleteExpired()
}

// RemoveExpired 清理已过期的条目，返回清理的条数
func (c *LRUCache[T]) RemoveExpired() int {
	now := time.Now()
	removed := 0
	for _, key := range c.storage.Keys() {
		item, ok := c.storage.Peek(key)
		if ok && now.After(item.ExpiredAt) {
			c.storage.Remove(key)
			removed++
		}
	}
	return removed
}
