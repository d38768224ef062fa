package cache

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/docs-hub/docs-hub/internal/docs"
)

// MemoryCache 是 Cache 的唯一生产实现：RWMutex 保护的内存表 + 按 crate 分片的
// 磁盘持久化。同一进程内所有调用方共享一个实例，缓存目录也由该实例独占。
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[docs.PageRequest]docs.PageContent

	dir    string
	logger logrus.FieldLogger
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache 以 dir 作为持久化目录构建空缓存；logger 为 nil 时退回全局 logrus。
func NewMemoryCache(dir string, logger logrus.FieldLogger) *MemoryCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MemoryCache{
		entries: make(map[docs.PageRequest]docs.PageContent),
		dir:     dir,
		logger:  logger,
	}
}

func (c *MemoryCache) Get(key docs.PageRequest) (docs.PageContent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *MemoryCache) Insert(key docs.PageRequest, value docs.PageContent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *MemoryCache) Contains(key docs.PageRequest) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[docs.PageRequest]docs.PageContent)
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := make(map[string]int, len(c.entries))
	for key := range c.entries {
		stats[key.CrateName]++
	}
	return stats
}

// Dir 返回持久化目录，主要供日志与测试使用。
func (c *MemoryCache) Dir() string {
	return c.dir
}

// replaceAll 用 loaded 原子替换内存表；传 nil 等价于清空。
func (c *MemoryCache) replaceAll(loaded map[docs.PageRequest]docs.PageContent) {
	if loaded == nil {
		loaded = make(map[docs.PageRequest]docs.PageContent)
	}
	c.mu.Lock()
	c.entries = loaded
	c.mu.Unlock()
}
