package cache

import (
	"time"
)

// Option is a function that configures a Config.
// This pattern allows for flexible and readable configuration of cache instances.
//
// Option 是一个配置Config的函数。
// 这种模式允许灵活且可读地配置缓存实例。
type Option func(*Config)

// WithMaxEntries sets the maximum number of entries in the cache.
// If set to 0, there is no limit on the number of entries.
//
// WithMaxEntries 设置缓存中的最大条目数。
// 如果设置为0，则条目数量没有限制。
func WithMaxEntries(count int) Option {
	return func(c *Config) {
		c.MaxEntries = count
	}
}

// WithShards sets the number of shards for the cache.
// Higher values reduce lock contention in concurrent scenarios.
// The value must be a power of 2.
//
// WithShards 设置缓存的分片数量。
// 较高的值可以减少并发场景中的锁竞争。
// 该值必须是2的幂。
func WithShards(count int) Option {
	return func(c *Config) {
		c.ShardCount = count
	}
}

// WithDefaultLifetime sets the lifecycle applied to entries whose loader
// declares none.
//
// WithDefaultLifetime 设置应用于加载器未声明生命周期的条目的默认生命周期。
func WithDefaultLifetime(lt Lifetime) Option {
	return func(c *Config) {
		c.DefaultLifetime = lt
	}
}

// WithRevalidateWorkers sets the number of background revalidation goroutines.
//
// WithRevalidateWorkers 设置后台重新验证协程的数量。
func WithRevalidateWorkers(n int) Option {
	return func(c *Config) {
		c.RevalidateWorkers = n
	}
}

// WithRevalidateQueueSize sets the pending revalidation queue depth.
// Triggers beyond this depth are dropped and retried on a later read.
//
// WithRevalidateQueueSize 设置待处理重新验证队列的深度。
// 超过此深度的触发会被丢弃，并在稍后的读取中重试。
func WithRevalidateQueueSize(n int) Option {
	return func(c *Config) {
		c.RevalidateQueueSize = n
	}
}

// WithRevalidateTimeout bounds a single background revalidation.
//
// WithRevalidateTimeout 限制单次后台重新验证的时长。
func WithRevalidateTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RevalidateTimeout = d
	}
}

// WithCleanupInterval sets the interval for cleaning up expired entries.
// This is the interval at which expired items are removed from the cache.
//
// WithCleanupInterval 设置清理过期条目的间隔。
// 这是从缓存中删除过期项目的时间间隔。
func WithCleanupInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.CleanupInterval = interval
	}
}

// WithEvictionSampleSize sets the candidate sample size per eviction decision.
//
// WithEvictionSampleSize 设置每次淘汰决策的候选采样大小。
func WithEvictionSampleSize(n int) Option {
	return func(c *Config) {
		c.EvictionSampleSize = n
	}
}

// WithClock injects a time source, primarily for tests exercising the
// lifecycle thresholds.
//
// WithClock 注入时间源，主要用于测试生命周期阈值。
func WithClock(clock func() time.Time) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}
