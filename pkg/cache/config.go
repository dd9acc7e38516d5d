package cache

import (
	"fmt"
	"time"
)

// Config defines the configuration options for a cache instance.
// It controls capacity, sharding, the default lifecycle, and the
// background revalidation and cleanup machinery.
//
// Config 定义缓存实例的配置选项。
// 它控制容量、分片、默认生命周期以及后台重新验证和清理机制。
type Config struct {
	// Name of the cache instance, used for metrics and logging
	// 缓存实例的名称，用于指标收集和日志记录
	Name string `json:"name" yaml:"name"`

	// MaxEntries is the maximum number of entries the cache can hold
	// If set to 0, there is no limit on the number of entries
	//
	// MaxEntries 是缓存可以容纳的最大条目数
	// 如果设置为0，则条目数量没有限制
	MaxEntries int `json:"max_entries" yaml:"max_entries"`

	// ShardCount is the number of shards to use for the cache
	// Higher values reduce lock contention in concurrent scenarios
	//
	// ShardCount 是缓存使用的分片数量
	// 较高的值可以减少并发场景中的锁竞争
	ShardCount int `json:"shard_count" yaml:"shard_count"`

	// DefaultLifetime applies to entries whose loader declares no lifecycle
	//
	// DefaultLifetime 应用于加载器未声明生命周期的条目
	DefaultLifetime Lifetime `json:"default_lifetime" yaml:"default_lifetime"`

	// RevalidateWorkers is the number of background revalidation goroutines
	//
	// RevalidateWorkers 是后台重新验证协程的数量
	RevalidateWorkers int `json:"revalidate_workers" yaml:"revalidate_workers"`

	// RevalidateQueueSize bounds the pending revalidation queue
	//
	// RevalidateQueueSize 限制待处理的重新验证队列长度
	RevalidateQueueSize int `json:"revalidate_queue_size" yaml:"revalidate_queue_size"`

	// RevalidateTimeout bounds a single background revalidation
	//
	// RevalidateTimeout 限制单次后台重新验证的时长
	RevalidateTimeout time.Duration `json:"revalidate_timeout" yaml:"revalidate_timeout"`

	// CleanupInterval is the interval at which expired items are cleaned up
	//
	// CleanupInterval 是清理过期项目的时间间隔
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`

	// EvictionSampleSize is the candidate sample size per eviction decision
	//
	// EvictionSampleSize 是每次淘汰决策的候选采样大小
	EvictionSampleSize int `json:"eviction_sample_size" yaml:"eviction_sample_size"`

	// Clock allows tests to inject a time source; nil means time.Now
	// Clock 供测试注入时间源；为nil时使用time.Now
	Clock func() time.Time `json:"-" yaml:"-"`
}

// NewDefaultConfig returns a Config with sensible default values.
// This provides a starting point for creating a cache configuration.
//
// NewDefaultConfig 返回具有合理默认值的Config。
// 这为创建缓存配置提供了一个起点。
func NewDefaultConfig() *Config {
	return &Config{
		Name:       "storefront",
		MaxEntries: 10000,
		ShardCount: 64,
		DefaultLifetime: Lifetime{
			Stale:      30 * time.Second,
			Revalidate: time.Minute,
			Expire:     5 * time.Minute,
		},
		RevalidateWorkers:   4,
		RevalidateQueueSize: 256,
		RevalidateTimeout:   10 * time.Second,
		CleanupInterval:     time.Minute,
		EvictionSampleSize:  8,
	}
}

// Validate checks if the configuration is valid.
// It verifies that all settings have appropriate values and combinations.
//
// Validate 检查配置是否有效。
// 它验证所有设置是否具有适当的值和组合。
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("cache name cannot be empty")
	}

	if c.ShardCount <= 0 {
		return fmt.Errorf("shard count must be positive")
	}

	// Check if ShardCount is a power of 2
	// 检查ShardCount是否为2的幂
	if (c.ShardCount & (c.ShardCount - 1)) != 0 {
		return fmt.Errorf("shard count must be a power of 2")
	}

	if err := c.DefaultLifetime.Validate(); err != nil {
		return fmt.Errorf("default lifetime: %w", err)
	}

	if c.RevalidateWorkers <= 0 {
		return fmt.Errorf("revalidate workers must be positive")
	}

	if c.CleanupInterval < time.Second {
		return fmt.Errorf("cleanup interval must be at least 1 second")
	}

	return nil
}
