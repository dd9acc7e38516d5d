// Package configs provides configuration structures and utilities for the storefront.
// It offers mechanisms for loading, validating, and saving configuration from
// YAML and JSON files, organized into sections for the HTTP server, the upstream
// catalog API, the cache lifecycle, and logging.
//
// Package configs 提供店面的配置结构和工具。
// 它提供从YAML和JSON文件加载、验证和保存配置的机制，
// 按HTTP服务器、上游目录API、缓存生命周期和日志等部分组织。
package configs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for the storefront.
//
// Config 表示店面的完整配置。
type Config struct {
	// Server contains the HTTP listener settings
	// Server 包含HTTP监听器设置
	Server ServerConfig `json:"server" yaml:"server"`

	// Upstream configures the catalog API the storefront fetches from
	// Upstream 配置店面从中获取数据的目录API
	Upstream UpstreamConfig `json:"upstream" yaml:"upstream"`

	// Cache contains the freshness lifecycle and capacity settings
	// Cache 包含新鲜度生命周期和容量设置
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Metrics configures the Prometheus endpoint
	// Metrics 配置Prometheus端点
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Log configures the logging behavior
	// Log 配置日志行为
	Log LogConfig `json:"log" yaml:"log"`

	// Extensions configures optional features like hot reloading
	// Extensions 配置可选功能，如热重载
	Extensions ExtensionsConfig `json:"extensions" yaml:"extensions"`
}

// ServerConfig contains settings for the HTTP server.
//
// ServerConfig 包含HTTP服务器的设置。
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080"
	// Addr 是监听地址，例如":8080"
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout bounds reading the request headers and body
	// ReadTimeout 限制读取请求头和请求体的时间
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout bounds writing the response. Pages stream deferred
	// sections, so this must cover the slowest section, not just the shell.
	// WriteTimeout 限制写入响应的时间。页面会流式传输延迟部分，
	// 因此它必须覆盖最慢的部分，而不仅仅是外壳。
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// ShutdownTimeout is how long graceful shutdown waits for in-flight requests
	// ShutdownTimeout 是优雅关闭等待进行中请求的时间
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// UpstreamConfig contains settings for the upstream catalog API.
//
// UpstreamConfig 包含上游目录API的设置。
type UpstreamConfig struct {
	// BaseURL is the root of the catalog API
	// BaseURL 是目录API的根地址
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout bounds each upstream request
	// Timeout 限制每个上游请求的时间
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// CacheConfig contains the freshness lifecycle and capacity settings.
//
// CacheConfig 包含新鲜度生命周期和容量设置。
type CacheConfig struct {
	// Name is the identifier for the cache instance
	// Name 是缓存实例的标识符
	Name string `json:"name" yaml:"name"`

	// MaxEntries is the maximum number of entries the cache can hold (0 = unlimited)
	// MaxEntries 是缓存可以容纳的最大条目数（0 = 无限制）
	MaxEntries int `json:"max_entries" yaml:"max_entries"`

	// ShardCount is the number of shards for reducing lock contention (must be power of 2)
	// ShardCount 是用于减少锁竞争的分片数量（必须是2的幂）
	ShardCount int `json:"shard_count" yaml:"shard_count"`

	// EvictionSampleSize is how many entries are sampled per eviction round
	// EvictionSampleSize 是每轮淘汰采样的条目数
	EvictionSampleSize int `json:"eviction_sample_size" yaml:"eviction_sample_size"`

	// Revalidate is how long an entry is served as fresh
	// Revalidate 是条目作为新鲜内容提供的时长
	Revalidate time.Duration `json:"revalidate" yaml:"revalidate"`

	// Stale is the window after Revalidate during which stale entries are
	// served while a background refresh runs
	// Stale 是Revalidate之后的窗口期，在此期间提供过时条目，
	// 同时运行后台刷新
	Stale time.Duration `json:"stale" yaml:"stale"`

	// Expire is the hard lifetime; at this age reads block on a reload
	// Expire 是硬生存期；达到此年龄时读取将阻塞等待重新加载
	Expire time.Duration `json:"expire" yaml:"expire"`

	// RevalidateWorkers is the size of the background refresh worker pool
	// RevalidateWorkers 是后台刷新工作池的大小
	RevalidateWorkers int `json:"revalidate_workers" yaml:"revalidate_workers"`

	// RevalidateQueueSize is the pending refresh queue depth
	// RevalidateQueueSize 是待处理刷新队列的深度
	RevalidateQueueSize int `json:"revalidate_queue_size" yaml:"revalidate_queue_size"`

	// RevalidateTimeout bounds each background refresh
	// RevalidateTimeout 限制每次后台刷新的时间
	RevalidateTimeout time.Duration `json:"revalidate_timeout" yaml:"revalidate_timeout"`

	// CleanupInterval is how often expired entries are swept
	// CleanupInterval 是清除过期条目的频率
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// MetricsConfig contains settings for metrics collection.
//
// MetricsConfig 包含指标收集的设置。
type MetricsConfig struct {
	// Enable determines whether the /metrics endpoint is registered
	// Enable 确定是否注册/metrics端点
	Enable bool `json:"enable" yaml:"enable"`
}

// LogConfig contains settings for logging.
//
// LogConfig 包含日志记录的设置。
type LogConfig struct {
	// Level sets the minimum log level ("debug", "info", "warn", "error")
	// Level 设置最低日志级别（"debug"、"info"、"warn"、"error"）
	Level string `json:"level" yaml:"level"`

	// Format specifies the log format ("text", "json")
	// Format 指定日志格式（"text"、"json"）
	Format string `json:"format" yaml:"format"`

	// Output determines where logs are written ("stdout", "stderr")
	// Output 确定日志写入的位置（"stdout"、"stderr"）
	Output string `json:"output" yaml:"output"`
}

// ExtensionsConfig contains settings for extensions.
//
// ExtensionsConfig 包含扩展的设置。
type ExtensionsConfig struct {
	// HotReload contains settings for dynamic configuration reloading
	// HotReload 包含动态配置重新加载的设置
	HotReload HotReloadConfig `json:"hot_reload" yaml:"hot_reload"`
}

// HotReloadConfig contains settings for hot reloading.
//
// HotReloadConfig 包含热重载的设置。
type HotReloadConfig struct {
	// Enable determines whether hot reloading is active
	// Enable 确定是否启用热重载
	Enable bool `json:"enable" yaml:"enable"`

	// WatchInterval is how often to poll the file for changes. Zero means
	// react to file system notifications instead of polling.
	// WatchInterval 是轮询文件更改的频率。为零时改用文件系统通知而非轮询。
	WatchInterval time.Duration `json:"watch_interval" yaml:"watch_interval"`
}

// DefaultConfig returns a new Config with default values.
// The defaults give a working storefront against the public demo API
// with a short fresh window and a generous stale window.
//
// DefaultConfig 返回具有默认值的新Config。
// 默认值提供一个针对公共演示API的可用店面，
// 具有较短的新鲜窗口和较宽松的过时窗口。
//
// Returns:
//   - *Config: A new configuration instance with default values
//
// 返回：
//   - *Config: 具有默认值的新配置实例
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://dummyjson.com",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Name:                "storefront",
			MaxEntries:          10000,
			ShardCount:          64,
			EvictionSampleSize:  8,
			Revalidate:          30 * time.Second,
			Stale:               time.Minute,
			Expire:              5 * time.Minute,
			RevalidateWorkers:   4,
			RevalidateQueueSize: 256,
			RevalidateTimeout:   10 * time.Second,
			CleanupInterval:     time.Minute,
		},
		Metrics: MetricsConfig{
			Enable: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Extensions: ExtensionsConfig{
			HotReload: HotReloadConfig{
				Enable:        false,
				WatchInterval: 0,
			},
		},
	}
}

// LoadFromFile loads configuration from a file.
// It supports both YAML and JSON formats, automatically
// detecting the format based on the file extension.
//
// LoadFromFile 从文件加载配置。
// 它支持YAML和JSON格式，根据文件扩展名自动检测格式。
//
// Parameters:
//   - filename: Path to the configuration file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if loading fails
//
// 参数：
//   - filename: 配置文件的路径
//
// 返回：
//   - *Config: 加载的配置
//   - error: 如果加载失败则返回错误
func LoadFromFile(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration file: %w", err)
	}
	defer file.Close()

	config := DefaultConfig()
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(file).Decode(config)
	case ".json":
		err = json.NewDecoder(file).Decode(config)
	default:
		return nil, fmt.Errorf("unsupported configuration file format: %s", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

// LoadFromReader loads configuration from an io.Reader.
// This allows loading configuration from sources other than files,
// such as network streams or in-memory data.
//
// LoadFromReader 从io.Reader加载配置。
// 这允许从文件以外的源加载配置，
// 如网络流或内存中的数据。
//
// Parameters:
//   - r: The reader providing the configuration data
//   - format: The format of the data ("json", "yaml", or "yml")
//
// Returns:
//   - *Config: The loaded configuration
//   - error: An error if loading fails
//
// 参数：
//   - r: 提供配置数据的读取器
//   - format: 数据的格式（"json"、"yaml"或"yml"）
//
// 返回：
//   - *Config: 加载的配置
//   - error: 如果加载失败则返回错误
func LoadFromReader(r io.Reader, format string) (*Config, error) {
	config := DefaultConfig()
	var err error

	switch strings.ToLower(format) {
	case "yaml", "yml":
		err = yaml.NewDecoder(r).Decode(config)
	case "json":
		err = json.NewDecoder(r).Decode(config)
	default:
		return nil, fmt.Errorf("unsupported configuration format: %s", format)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
// It supports both YAML and JSON formats, automatically
// selecting the format based on the file extension.
//
// SaveToFile 将配置保存到文件。
// 它支持YAML和JSON格式，根据文件扩展名自动选择格式。
//
// Parameters:
//   - filename: Path where the configuration will be saved
//
// Returns:
//   - error: An error if saving fails
//
// 参数：
//   - filename: 配置将保存的路径
//
// 返回：
//   - error: 如果保存失败则返回错误
func (c *Config) SaveToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".yaml", ".yml":
		encoder := yaml.NewEncoder(file)
		defer encoder.Close()
		err = encoder.Encode(c)
	case ".json":
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(c)
	default:
		return fmt.Errorf("unsupported configuration file format: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	return nil
}

// Validate validates the configuration.
// It checks that all settings have valid values and
// that there are no conflicts or inconsistencies.
//
// Validate 验证配置。
// 它检查所有设置是否具有有效值，
// 并且没有冲突或不一致。
//
// Returns:
//   - error: An error describing the validation failure, or nil if valid
//
// 返回：
//   - error: 描述验证失败的错误，如果有效则为nil
func (c *Config) Validate() error {
	// Validate server settings
	// 验证服务器设置
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be specified")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}
	if c.Server.ShutdownTimeout < time.Second {
		return fmt.Errorf("server.shutdown_timeout must be at least 1 second")
	}

	// Validate upstream settings
	// 验证上游设置
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return fmt.Errorf("upstream.base_url must be an http(s) URL")
	}
	if c.Upstream.Timeout < time.Second {
		return fmt.Errorf("upstream.timeout must be at least 1 second")
	}

	// Validate cache settings
	// 验证缓存设置
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be non-negative")
	}
	if c.Cache.ShardCount <= 0 {
		return fmt.Errorf("cache.shard_count must be positive")
	}
	if !isPowerOfTwo(c.Cache.ShardCount) {
		return fmt.Errorf("cache.shard_count must be a power of 2")
	}
	if c.Cache.EvictionSampleSize <= 0 {
		return fmt.Errorf("cache.eviction_sample_size must be positive")
	}
	if c.Cache.Revalidate <= 0 {
		return fmt.Errorf("cache.revalidate must be positive")
	}
	if c.Cache.Stale < 0 {
		return fmt.Errorf("cache.stale must be non-negative")
	}
	if c.Cache.Expire <= c.Cache.Revalidate {
		return fmt.Errorf("cache.expire must be greater than cache.revalidate")
	}
	if c.Cache.RevalidateWorkers <= 0 {
		return fmt.Errorf("cache.revalidate_workers must be positive")
	}
	if c.Cache.RevalidateQueueSize <= 0 {
		return fmt.Errorf("cache.revalidate_queue_size must be positive")
	}
	if c.Cache.RevalidateTimeout < time.Second {
		return fmt.Errorf("cache.revalidate_timeout must be at least 1 second")
	}
	if c.Cache.CleanupInterval < time.Second {
		return fmt.Errorf("cache.cleanup_interval must be at least 1 second")
	}

	// Validate log settings
	// 验证日志设置
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
		// 有效级别
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
		// Valid formats
		// 有效格式
	default:
		return fmt.Errorf("log.format must be one of: text, json")
	}
	switch c.Log.Output {
	case "stdout", "stderr":
		// Valid outputs
		// 有效输出
	default:
		return fmt.Errorf("log.output must be one of: stdout, stderr")
	}

	// Validate extensions settings
	// 验证扩展设置
	if c.Extensions.HotReload.Enable && c.Extensions.HotReload.WatchInterval != 0 && c.Extensions.HotReload.WatchInterval < time.Second {
		return fmt.Errorf("extensions.hot_reload.watch_interval must be zero or at least 1 second")
	}

	return nil
}

// isPowerOfTwo checks if n is a power of 2.
// Shard counts must be powers of 2 for efficient hashing.
//
// isPowerOfTwo 检查n是否为2的幂。
// 分片计数必须是2的幂以实现高效哈希。
func isPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
