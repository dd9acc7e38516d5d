// Package storage provides the sharded storage layer for the freshness cache.
// Package storage 提供新鲜度缓存的分片存储层。
//
// This package keys entries by string and additionally indexes them by tag and
// by origin path, so that on-demand invalidation can transition whole groups
// of entries to the expired state without scanning the keyspace. Sharding
// reduces lock contention under concurrent page renders.
//
// 本包以字符串为键存储条目，并按标签和来源路径建立索引，
// 使按需失效可以将整组条目转换为过期状态而无需扫描整个键空间。
// 分片可以减少并发页面渲染下的锁竞争。
package storage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/noobtrump/storefront/internal/utils"
)

const (
	// defaultShardCount is the default number of shards.
	// Power of 2 is chosen to optimize modulo operations.
	//
	// defaultShardCount 是默认分片数量，选择2的幂次方以优化取模运算。
	defaultShardCount = 64

	// defaultInitialCapacity is the default initial capacity per shard.
	//
	// defaultInitialCapacity 是每个分片的默认初始容量。
	defaultInitialCapacity = 16
)

// Entry flag bits. Flags are read and written atomically; they survive until
// the entry is replaced by a successful reload.
//
// 条目标志位。标志以原子方式读写；在条目被成功重新加载替换之前一直有效。
const (
	// FlagInvalidated forces the expired state regardless of age.
	// FlagInvalidated 无论年龄如何都强制进入过期状态。
	FlagInvalidated uint32 = 1 << 0

	// FlagForceStale forces the stale state while the entry would otherwise
	// still be fresh.
	// FlagForceStale 在条目本来仍然新鲜时强制进入过时状态。
	FlagForceStale uint32 = 1 << 1
)

// Entry represents a cached value together with its lifecycle bookkeeping.
// Entry 表示缓存值及其生命周期记录。
type Entry struct {
	Key        string      // Cache key / 缓存键
	Value      interface{} // Cached value / 缓存的值
	FetchedAt  int64       // Load timestamp (Unix nano) / 加载时间（Unix纳秒）
	Stale      int64       // Stale window (nanoseconds) / 过时窗口（纳秒）
	Revalidate int64       // Revalidate threshold (nanoseconds) / 重新验证阈值（纳秒）
	Expire     int64       // Expire threshold (nanoseconds) / 过期阈值（纳秒）
	Tags       []string    // Invalidation tags / 失效标签
	Path       string      // Origin path for path invalidation / 用于路径失效的来源路径
	AccessTime int64       // Last access timestamp (Unix nano, atomic) / 最后访问时间（Unix纳秒，原子）
	Flags      uint32      // Bit flags (atomic) / 标志位（原子）
}

// Age returns the entry age relative to now (Unix nano).
//
// Age 返回条目相对于now（Unix纳秒）的年龄。
func (e *Entry) Age(now int64) time.Duration {
	return time.Duration(now - e.FetchedAt)
}

// LoadFlags atomically reads the entry flags.
// LoadFlags 原子读取条目标志。
func (e *Entry) LoadFlags() uint32 {
	return atomic.LoadUint32(&e.Flags)
}

// OrFlags atomically sets the given flag bits.
// OrFlags 原子设置给定的标志位。
func (e *Entry) OrFlags(flags uint32) {
	for {
		old := atomic.LoadUint32(&e.Flags)
		if atomic.CompareAndSwapUint32(&e.Flags, old, old|flags) {
			return
		}
	}
}

// Touch atomically updates the last access time.
// Touch 原子更新最后访问时间。
func (e *Entry) Touch(now int64) {
	atomic.StoreInt64(&e.AccessTime, now)
}

// LastAccess atomically reads the last access time.
// LastAccess 原子读取最后访问时间。
func (e *Entry) LastAccess() int64 {
	return atomic.LoadInt64(&e.AccessTime)
}

// Config contains configuration options for the storage.
// Config 存储层配置选项。
type Config struct {
	// ShardCount is the number of shards, recommended to be a power of 2.
	// ShardCount 是分片数量，建议为2的幂次方。
	ShardCount int

	// InitialCapacity is the initial capacity per shard.
	// InitialCapacity 是每个分片的初始容量。
	InitialCapacity int
}

// shard is a single lock-guarded segment of the keyspace.
// shard 是键空间中由单个锁保护的片段。
type shard struct {
	mu    sync.RWMutex
	items map[string]*Entry
}

// Store is the sharded storage implementation with tag and path indexes.
// Store 是带有标签和路径索引的分片存储实现。
type Store struct {
	shards    []*shard
	shardMask uint64
	itemCount int64
	indexMu   sync.RWMutex
	tagIndex  map[string]map[string]struct{}
	pathIndex map[string]map[string]struct{}
}

// New creates a storage instance. A nil config selects the defaults;
// a non-power-of-two shard count is rounded up.
//
// New 创建存储实例。config为nil时使用默认值；
// 非2的幂的分片数会向上取整。
func New(config *Config) *Store {
	if config == nil {
		config = &Config{}
	}
	shardCount := config.ShardCount
	if shardCount <= 0 {
		shardCount = defaultShardCount
	}
	shardCount = nextPowerOfTwo(shardCount)

	capacity := config.InitialCapacity
	if capacity <= 0 {
		capacity = defaultInitialCapacity
	}

	s := &Store{
		shards:    make([]*shard, shardCount),
		shardMask: uint64(shardCount - 1),
		tagIndex:  make(map[string]map[string]struct{}),
		pathIndex: make(map[string]map[string]struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{items: make(map[string]*Entry, capacity)}
	}
	return s
}

// nextPowerOfTwo 返回不小于n的最小2的幂。
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// shardFor 通过FNV-64a哈希选择键所属的分片。
func (s *Store) shardFor(key string) *shard {
	return s.shards[utils.Hash64(key)&s.shardMask]
}

// Get returns the entry for key, if present. The entry pointer is shared;
// callers must only mutate it through its atomic accessors.
//
// Get 返回键对应的条目（如果存在）。条目指针是共享的；
// 调用者只能通过原子访问器修改它。
func (s *Store) Get(key string) (*Entry, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.items[key]
	sh.mu.RUnlock()
	return e, ok
}

// Set inserts or replaces the entry for entry.Key and refreshes the tag and
// path indexes. A replaced entry drops any invalidation flags, since the new
// value starts a new lifecycle.
//
// Set 插入或替换entry.Key对应的条目，并刷新标签和路径索引。
// 被替换的条目会丢弃所有失效标志，因为新值开始了新的生命周期。
func (s *Store) Set(entry *Entry) {
	sh := s.shardFor(entry.Key)
	sh.mu.Lock()
	prev, existed := sh.items[entry.Key]
	sh.items[entry.Key] = entry
	sh.mu.Unlock()

	if !existed {
		atomic.AddInt64(&s.itemCount, 1)
	}

	s.indexMu.Lock()
	if existed {
		s.unindexLocked(prev)
	}
	s.indexLocked(entry)
	s.indexMu.Unlock()
}

// Delete removes the entry for key. Returns true if an entry was removed.
//
// Delete 删除键对应的条目。如果删除了条目则返回true。
func (s *Store) Delete(key string) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	prev, existed := sh.items[key]
	if existed {
		delete(sh.items, key)
	}
	sh.mu.Unlock()

	if !existed {
		return false
	}
	atomic.AddInt64(&s.itemCount, -1)

	s.indexMu.Lock()
	s.unindexLocked(prev)
	s.indexMu.Unlock()
	return true
}

// Clear removes all entries and indexes.
//
// Clear 删除所有条目和索引。
func (s *Store) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.items = make(map[string]*Entry, defaultInitialCapacity)
		sh.mu.Unlock()
	}
	atomic.StoreInt64(&s.itemCount, 0)

	s.indexMu.Lock()
	s.tagIndex = make(map[string]map[string]struct{})
	s.pathIndex = make(map[string]map[string]struct{})
	s.indexMu.Unlock()
}

// Len returns the current entry count.
// Len 返回当前条目数。
func (s *Store) Len() int64 {
	return atomic.LoadInt64(&s.itemCount)
}

// KeysWithTag returns the keys of all entries carrying the tag.
//
// KeysWithTag 返回携带该标签的所有条目的键。
func (s *Store) KeysWithTag(tag string) []string {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	keys := make([]string, 0, len(s.tagIndex[tag]))
	for k := range s.tagIndex[tag] {
		keys = append(keys, k)
	}
	return keys
}

// KeysWithPath returns the keys of all entries originating from the path.
//
// KeysWithPath 返回来源于该路径的所有条目的键。
func (s *Store) KeysWithPath(path string) []string {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	keys := make([]string, 0, len(s.pathIndex[path]))
	for k := range s.pathIndex[path] {
		keys = append(keys, k)
	}
	return keys
}

// Range calls fn for every entry until fn returns false.
// The iteration order is unspecified.
//
// Range 对每个条目调用fn，直到fn返回false。
// 迭代顺序不确定。
func (s *Store) Range(fn func(*Entry) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		entries := make([]*Entry, 0, len(sh.items))
		for _, e := range sh.items {
			entries = append(entries, e)
		}
		sh.mu.RUnlock()
		for _, e := range entries {
			if !fn(e) {
				return
			}
		}
	}
}

// Sample returns up to n entries drawn from the shards in map iteration
// order. Used by the eviction policy to pick candidates without a global scan.
//
// Sample 按map迭代顺序从分片中抽取最多n个条目。
// 淘汰策略用它挑选候选条目，避免全局扫描。
func (s *Store) Sample(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	out := make([]*Entry, 0, n)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.items {
			out = append(out, e)
			if len(out) >= n {
				sh.mu.RUnlock()
				return out
			}
		}
		sh.mu.RUnlock()
	}
	return out
}

// indexLocked 将条目加入标签和路径索引。调用者必须持有indexMu。
func (s *Store) indexLocked(e *Entry) {
	for _, tag := range e.Tags {
		set, ok := s.tagIndex[tag]
		if !ok {
			set = make(map[string]struct{})
			s.tagIndex[tag] = set
		}
		set[e.Key] = struct{}{}
	}
	if e.Path != "" {
		set, ok := s.pathIndex[e.Path]
		if !ok {
			set = make(map[string]struct{})
			s.pathIndex[e.Path] = set
		}
		set[e.Key] = struct{}{}
	}
}

// unindexLocked 将条目从标签和路径索引中移除。调用者必须持有indexMu。
func (s *Store) unindexLocked(e *Entry) {
	for _, tag := range e.Tags {
		if set, ok := s.tagIndex[tag]; ok {
			delete(set, e.Key)
			if len(set) == 0 {
				delete(s.tagIndex, tag)
			}
		}
	}
	if e.Path != "" {
		if set, ok := s.pathIndex[e.Path]; ok {
			delete(set, e.Key)
			if len(set) == 0 {
				delete(s.pathIndex, e.Path)
			}
		}
	}
}
