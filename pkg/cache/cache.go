// Package cache provides a thread-safe freshness-lifecycle cache.
// Every entry carries a Lifetime declaring its stale, revalidate, and expire
// thresholds; reads classify the entry by age into Fresh, Stale, or Expired.
// Fresh entries are served as-is, stale entries are served while a background
// revalidation runs, and expired entries block on a full reload. Entries can
// additionally be invalidated on demand by tag or by origin path.
//
// Package cache 提供线程安全的新鲜度生命周期缓存。
// 每个条目携带一个Lifetime，声明其过时、重新验证和过期阈值；
// 读取时按年龄将条目分类为Fresh、Stale或Expired。
// 新鲜条目按原样提供，过时条目在后台重新验证的同时继续提供，
// 过期条目则阻塞等待完整重新加载。条目还可以按标签或来源路径按需失效。
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/noobtrump/storefront/internal/eviction"
	"github.com/noobtrump/storefront/internal/freshness"
	"github.com/noobtrump/storefront/internal/storage"
	"github.com/noobtrump/storefront/pkg/errors"
	"github.com/noobtrump/storefront/pkg/loader"
)

// Stats represents cache statistics.
// These metrics are collected during cache operations and can be used
// to monitor behavior and tune the per-fetch lifetimes.
//
// Stats 表示缓存统计信息。
// 这些指标在缓存操作期间收集，可用于监控行为和调整每次抓取的生命周期。
type Stats struct {
	// EntryCount is the current number of entries in the cache
	// EntryCount 是缓存中当前的条目数量
	EntryCount int64 `json:"entry_count"`

	// Hits is the number of reads served from the cache (fresh or stale)
	// Hits 是从缓存提供的读取次数（新鲜或过时）
	Hits uint64 `json:"hits"`

	// Misses is the number of reads that required a blocking load
	// Misses 是需要阻塞加载的读取次数
	Misses uint64 `json:"misses"`

	// StaleServes is the number of reads served while revalidation ran
	// StaleServes 是在重新验证进行期间提供的读取次数
	StaleServes uint64 `json:"stale_serves"`

	// Revalidations is the number of completed background revalidations
	// Revalidations 是已完成的后台重新验证次数
	Revalidations uint64 `json:"revalidations"`

	// RevalidationFailures is the number of failed background revalidations
	// RevalidationFailures 是失败的后台重新验证次数
	RevalidationFailures uint64 `json:"revalidation_failures"`

	// Invalidations is the number of entries invalidated on demand
	// Invalidations 是按需失效的条目数量
	Invalidations uint64 `json:"invalidations"`

	// Evictions is the number of entries removed due to capacity constraints
	// Evictions 是由于容量限制而删除的条目数
	Evictions uint64 `json:"evictions"`

	// Expirations is the number of entries reclaimed by the cleaner
	// Expirations 是清理器回收的条目数
	Expirations uint64 `json:"expirations"`
}

// Cache is the freshness-lifecycle cache.
// All methods are thread-safe and can be called concurrently.
//
// Cache 是新鲜度生命周期缓存。
// 所有方法都是线程安全的，可以并发调用。
type Cache struct {
	name    string
	config  *Config
	store   *storage.Store
	reval   *freshness.Revalidator
	cleaner *freshness.Cleaner
	evictor *eviction.SampledLRU
	now     func() time.Time

	closed               uint32
	hits                 uint64
	misses               uint64
	staleServes          uint64
	revalidations        uint64
	revalidationFailures uint64
	invalidations        uint64
}

// New creates a cache with the given name and options.
//
// New 使用给定的名称和选项创建缓存。
func New(name string, options ...Option) (*Cache, error) {
	config := NewDefaultConfig()
	config.Name = name

	// Apply all options
	// 应用所有选项
	for _, option := range options {
		option(config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	now := config.Clock
	if now == nil {
		now = time.Now
	}

	store := storage.New(&storage.Config{ShardCount: config.ShardCount})

	c := &Cache{
		name:   name,
		config: config,
		store:  store,
		now:    now,
		reval: freshness.NewRevalidator(&freshness.RevalidatorConfig{
			Workers:   config.RevalidateWorkers,
			QueueSize: config.RevalidateQueueSize,
			Timeout:   config.RevalidateTimeout,
		}),
		evictor: eviction.NewSampledLRU(store, &eviction.Config{
			MaxEntries: config.MaxEntries,
			SampleSize: config.EvictionSampleSize,
		}),
	}
	// The cleaner must judge entry age with the same time source the read
	// path classifies with.
	// 清理器必须使用与读取路径分类相同的时间源判断条目年龄。
	c.cleaner = freshness.NewCleaner(store, &freshness.CleanerConfig{
		CleanInterval: config.CleanupInterval,
		Clock:         now,
	})
	c.cleaner.Start()

	return c, nil
}

// GetOrLoad retrieves the value for key, driving the lifecycle state machine.
//
// A fresh entry is returned immediately. A stale entry is returned immediately
// while a background revalidation is scheduled through ld; one revalidation
// runs per key at a time. A missing, expired, or invalidated entry blocks on
// ld and stores the loaded value with the lifecycle it declares.
//
// The returned State reports how the value was obtained: StateFresh and
// StateStale mean a cache serve, StateMiss and StateExpired mean a blocking
// load took place.
//
// GetOrLoad 检索键的值，驱动生命周期状态机。
//
// 新鲜条目立即返回。过时条目立即返回，同时通过ld调度一次后台重新验证；
// 每个键同一时刻只运行一次重新验证。缺失、过期或已失效的条目会阻塞在ld上，
// 并以其声明的生命周期存储加载的值。
//
// 返回的State报告值的获取方式：StateFresh和StateStale表示缓存提供，
// StateMiss和StateExpired表示发生了阻塞加载。
func (c *Cache) GetOrLoad(ctx context.Context, key string, ld loader.Loader) (interface{}, State, error) {
	if atomic.LoadUint32(&c.closed) == 1 {
		return nil, StateMiss, errors.ErrClosed
	}
	if key == "" {
		return nil, StateMiss, errors.ErrKeyEmpty
	}
	if ld == nil {
		return nil, StateMiss, errors.ErrNoLoader
	}

	nowT := c.now()
	if entry, ok := c.store.Get(key); ok {
		flags := entry.LoadFlags()
		if flags&storage.FlagInvalidated == 0 {
			state := c.classify(entry, nowT)
			if state == StateFresh && flags&storage.FlagForceStale != 0 {
				state = StateStale
			}

			switch state {
			case StateFresh:
				entry.Touch(nowT.UnixNano())
				atomic.AddUint64(&c.hits, 1)
				return entry.Value, StateFresh, nil
			case StateStale:
				entry.Touch(nowT.UnixNano())
				atomic.AddUint64(&c.hits, 1)
				atomic.AddUint64(&c.staleServes, 1)
				c.reval.Trigger(key, func(jctx context.Context) {
					c.revalidate(jctx, key, ld)
				})
				return entry.Value, StateStale, nil
			}
			// StateExpired falls through to a blocking load
			// StateExpired 继续执行阻塞加载
		}
		atomic.AddUint64(&c.misses, 1)
		value, err := c.load(ctx, key, ld)
		return value, StateExpired, err
	}

	atomic.AddUint64(&c.misses, 1)
	value, err := c.load(ctx, key, ld)
	return value, StateMiss, err
}

// Get retrieves a value without triggering any loading or revalidation.
// Expired and invalidated entries are reported as such with a nil value.
//
// Get 检索值而不触发任何加载或重新验证。
// 过期和已失效的条目以nil值按其状态报告。
func (c *Cache) Get(ctx context.Context, key string) (interface{}, State, error) {
	if atomic.LoadUint32(&c.closed) == 1 {
		return nil, StateMiss, errors.ErrClosed
	}
	if key == "" {
		return nil, StateMiss, errors.ErrKeyEmpty
	}

	entry, ok := c.store.Get(key)
	if !ok {
		return nil, StateMiss, nil
	}
	if entry.LoadFlags()&storage.FlagInvalidated != 0 {
		return nil, StateExpired, nil
	}

	state := c.classify(entry, c.now())
	if state == StateExpired {
		return nil, StateExpired, nil
	}
	return entry.Value, state, nil
}

// Set stores a value with the given lifecycle directives.
// Zero directives fall back to the cache's default lifetime.
//
// Set 使用给定的生命周期指令存储值。
// 零值指令回退到缓存的默认生命周期。
func (c *Cache) Set(ctx context.Context, key string, value interface{}, d loader.Directives) error {
	if atomic.LoadUint32(&c.closed) == 1 {
		return errors.ErrClosed
	}
	if key == "" {
		return errors.ErrKeyEmpty
	}

	lt := c.lifetimeFor(d)
	if err := lt.Validate(); err != nil {
		return errors.NewKeyError(key, err)
	}

	c.storeEntry(key, value, lt, d)
	return nil
}

// Delete removes a value from the cache.
// Returns true if the key was found and removed.
//
// Delete 从缓存中删除值。
// 如果找到并删除了键，则返回true。
func (c *Cache) Delete(ctx context.Context, key string) (bool, error) {
	if atomic.LoadUint32(&c.closed) == 1 {
		return false, errors.ErrClosed
	}
	if key == "" {
		return false, errors.ErrKeyEmpty
	}
	return c.store.Delete(key), nil
}

// Clear removes all values from the cache.
//
// Clear 删除缓存中的所有值。
func (c *Cache) Clear(ctx context.Context) error {
	if atomic.LoadUint32(&c.closed) == 1 {
		return errors.ErrClosed
	}
	c.store.Clear()
	return nil
}

// InvalidateTag transitions every entry carrying tag directly to the expired
// state, regardless of age. The next read for each key blocks on a reload.
// Returns the number of entries invalidated.
//
// InvalidateTag 将携带该标签的每个条目直接转换为过期状态，无论其年龄如何。
// 每个键的下一次读取都会阻塞等待重新加载。返回失效的条目数。
func (c *Cache) InvalidateTag(ctx context.Context, tag string) int {
	return c.invalidateKeys(c.store.KeysWithTag(tag))
}

// InvalidatePath transitions every entry originating from path directly to
// the expired state, regardless of age.
//
// InvalidatePath 将来源于该路径的每个条目直接转换为过期状态，无论其年龄如何。
func (c *Cache) InvalidatePath(ctx context.Context, path string) int {
	return c.invalidateKeys(c.store.KeysWithPath(path))
}

// MarkStaleTag forces every entry carrying tag into the stale state: the
// next read still serves the cached value but schedules a revalidation.
//
// MarkStaleTag 强制携带该标签的每个条目进入过时状态：
// 下一次读取仍然提供缓存值，但会调度一次重新验证。
func (c *Cache) MarkStaleTag(ctx context.Context, tag string) int {
	n := 0
	for _, key := range c.store.KeysWithTag(tag) {
		if entry, ok := c.store.Get(key); ok {
			entry.OrFlags(storage.FlagForceStale)
			n++
		}
	}
	return n
}

// Stats returns statistics about the cache.
//
// Stats 返回有关缓存的统计信息。
func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	if atomic.LoadUint32(&c.closed) == 1 {
		return nil, errors.ErrClosed
	}
	return &Stats{
		EntryCount:           c.store.Len(),
		Hits:                 atomic.LoadUint64(&c.hits),
		Misses:               atomic.LoadUint64(&c.misses),
		StaleServes:          atomic.LoadUint64(&c.staleServes),
		Revalidations:        atomic.LoadUint64(&c.revalidations),
		RevalidationFailures: atomic.LoadUint64(&c.revalidationFailures),
		Invalidations:        atomic.LoadUint64(&c.invalidations),
		Evictions:            c.evictor.Evictions(),
		Expirations:          c.cleaner.ExpiredCount(),
	}, nil
}

// Name returns the cache instance name.
// Name 返回缓存实例名称。
func (c *Cache) Name() string {
	return c.name
}

// Close stops the background machinery. After Close the cache must not be used.
//
// Close 停止后台机制。调用Close后不得再使用缓存。
func (c *Cache) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		return nil
	}
	c.reval.Close()
	c.cleaner.Close()
	return nil
}

// classify 按条目自身的生命周期对其年龄进行分类。
func (c *Cache) classify(entry *storage.Entry, now time.Time) State {
	lt := Lifetime{
		Stale:      time.Duration(entry.Stale),
		Revalidate: time.Duration(entry.Revalidate),
		Expire:     time.Duration(entry.Expire),
	}
	return lt.Classify(entry.Age(now.UnixNano()))
}

// lifetimeFor 将加载器指令解析为生命周期，零值回退到默认值。
func (c *Cache) lifetimeFor(d loader.Directives) Lifetime {
	lt := Lifetime{Stale: d.Stale, Revalidate: d.Revalidate, Expire: d.Expire}
	if lt.IsZero() {
		return c.config.DefaultLifetime
	}
	return lt
}

// load 执行阻塞加载并存储结果。
func (c *Cache) load(ctx context.Context, key string, ld loader.Loader) (interface{}, error) {
	res, err := ld.Load(ctx, key)
	if err != nil {
		// Keep the loader's error in the chain so callers can still match
		// their own sentinels through errors.Is.
		// 将加载器的错误保留在链中，使调用者仍可通过errors.Is匹配自己的哨兵错误。
		return nil, errors.NewKeyError(key, fmt.Errorf("%w: %w", errors.ErrLoadFailed, err))
	}

	lt := c.lifetimeFor(res.Directives)
	if err := lt.Validate(); err != nil {
		return nil, errors.NewKeyError(key, err)
	}

	c.storeEntry(key, res.Value, lt, res.Directives)
	return res.Value, nil
}

// revalidate 执行一次后台重新验证。
// 失败时保留旧值继续提供，直到其自然过期。
func (c *Cache) revalidate(ctx context.Context, key string, ld loader.Loader) {
	res, err := ld.Load(ctx, key)
	if err != nil {
		atomic.AddUint64(&c.revalidationFailures, 1)
		return
	}

	lt := c.lifetimeFor(res.Directives)
	if err := lt.Validate(); err != nil {
		atomic.AddUint64(&c.revalidationFailures, 1)
		return
	}

	c.storeEntry(key, res.Value, lt, res.Directives)
	atomic.AddUint64(&c.revalidations, 1)
}

// storeEntry 写入条目并在超过容量时触发淘汰。
func (c *Cache) storeEntry(key string, value interface{}, lt Lifetime, d loader.Directives) {
	now := c.now().UnixNano()
	c.store.Set(&storage.Entry{
		Key:        key,
		Value:      value,
		FetchedAt:  now,
		Stale:      int64(lt.Stale),
		Revalidate: int64(lt.Revalidate),
		Expire:     int64(lt.Expire),
		Tags:       d.Tags,
		Path:       d.Path,
		AccessTime: now,
	})
	c.evictor.MaybeEvict()
}

// invalidateKeys 为给定键设置失效标志。
func (c *Cache) invalidateKeys(keys []string) int {
	n := 0
	for _, key := range keys {
		if entry, ok := c.store.Get(key); ok {
			entry.OrFlags(storage.FlagInvalidated)
			n++
		}
	}
	atomic.AddUint64(&c.invalidations, uint64(n))
	return n
}
