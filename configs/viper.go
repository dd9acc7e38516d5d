// This file implements Viper-based configuration management with hot reloading support.
//
// 本文件实现基于Viper的配置管理，支持热重载。
package configs

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ViperConfig wraps a Config with Viper functionality for hot reloading.
// It provides thread-safe access to configuration and supports dynamic
// updates when the underlying configuration file changes.
//
// ViperConfig 使用Viper功能包装Config以支持热重载。
// 它提供对配置的线程安全访问，并支持在底层配置文件更改时进行动态更新。
type ViperConfig struct {
	*Config                     // Embedded configuration / 嵌入的配置
	viper       *viper.Viper    // Viper instance for configuration management / 用于配置管理的Viper实例
	configFile  string          // Path to the configuration file / 配置文件路径
	mu          sync.RWMutex    // Mutex for thread-safe access / 用于线程安全访问的互斥锁
	subscribers []func(*Config) // List of subscribers to notify on config changes / 配置更改时要通知的订阅者列表
}

// NewViperConfig creates a new ViperConfig.
// It loads configuration from the specified file and validates it.
//
// NewViperConfig 创建一个新的ViperConfig。
// 它从指定的文件加载配置并验证它。
func NewViperConfig(configFile string) (*ViperConfig, error) {
	v := viper.New()

	v.SetConfigFile(configFile)
	ext := filepath.Ext(configFile)
	v.SetConfigType(strings.TrimPrefix(ext, "."))

	// Environment variables override file values, e.g. STOREFRONT_SERVER_ADDR
	// 环境变量会覆盖文件中的值，例如 STOREFRONT_SERVER_ADDR
	v.SetEnvPrefix("storefront")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &ViperConfig{
		Config:      config,
		viper:       v,
		configFile:  configFile,
		subscribers: make([]func(*Config), 0),
	}, nil
}

// EnableHotReload enables hot reloading of the configuration file.
// When the configuration file changes, the configuration is automatically
// reloaded and all subscribers are notified. An invalid new configuration
// is rejected and the previous one stays in effect.
//
// EnableHotReload 启用配置文件的热重载。
// 当配置文件更改时，配置会自动重新加载，并通知所有订阅者。
// 无效的新配置会被拒绝，之前的配置保持生效。
func (vc *ViperConfig) EnableHotReload() {
	vc.viper.WatchConfig()
	vc.viper.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config file changed", "file", e.Name)

		newConfig := DefaultConfig()
		if err := vc.viper.Unmarshal(newConfig); err != nil {
			slog.Error("failed to unmarshal config", "error", err)
			return
		}
		if err := newConfig.Validate(); err != nil {
			slog.Error("invalid configuration, keeping previous", "error", err)
			return
		}

		vc.apply(newConfig)
	})
}

// Subscribe adds a subscriber that will be notified when the configuration changes.
// The subscriber function is called with the new configuration as its argument.
//
// Subscribe 添加一个在配置更改时将被通知的订阅者。
// 订阅者函数将以新配置作为其参数被调用。
func (vc *ViperConfig) Subscribe(subscriber func(*Config)) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.subscribers = append(vc.subscribers, subscriber)
}

// Get returns the current configuration.
// This method is thread-safe and can be called concurrently.
//
// Get 返回当前配置。
// 此方法是线程安全的，可以并发调用。
func (vc *ViperConfig) Get() *Config {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.Config
}

// apply swaps in the new configuration and notifies subscribers outside the lock.
// apply 换入新配置并在锁外通知订阅者。
func (vc *ViperConfig) apply(newConfig *Config) {
	vc.mu.Lock()
	vc.Config = newConfig
	subscribers := make([]func(*Config), len(vc.subscribers))
	copy(subscribers, vc.subscribers)
	vc.mu.Unlock()

	for _, subscriber := range subscribers {
		subscriber(newConfig)
	}
}

// LoadViperConfig loads a configuration from a file using Viper and enables
// hot reloading as the file's own extensions section asks for: disabled
// entirely, fsnotify-based when watch_interval is zero, or polling-based
// otherwise.
//
// LoadViperConfig 使用Viper从文件加载配置，并按文件自身extensions部分的
// 要求启用热重载：完全禁用、watch_interval为零时基于fsnotify、
// 否则基于轮询。
func LoadViperConfig(configFile string) (*ViperConfig, error) {
	vc, err := NewViperConfig(configFile)
	if err != nil {
		return nil, err
	}

	hr := vc.Config.Extensions.HotReload
	switch {
	case !hr.Enable:
	case hr.WatchInterval > 0:
		vc.EnablePollingReload(hr.WatchInterval)
	default:
		vc.EnableHotReload()
	}

	return vc, nil
}

// EnablePollingReload starts a watcher that periodically re-reads the
// configuration file. This is an alternative to fsnotify-based hot reloading
// for environments where file system notifications are unreliable (network
// mounts, some containers).
//
// EnablePollingReload 启动一个定期重新读取配置文件的监视器。
// 这是基于fsnotify的热重载的替代方案，
// 适用于文件系统通知不可靠的环境（网络挂载、某些容器）。
func (vc *ViperConfig) EnablePollingReload(watchInterval time.Duration) {
	go func() {
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for range ticker.C {
			if err := vc.viper.ReadInConfig(); err != nil {
				slog.Error("failed to read config file", "error", err)
				continue
			}

			newConfig := DefaultConfig()
			if err := vc.viper.Unmarshal(newConfig); err != nil {
				slog.Error("failed to unmarshal config", "error", err)
				continue
			}
			if err := newConfig.Validate(); err != nil {
				slog.Error("invalid configuration, keeping previous", "error", err)
				continue
			}

			vc.mu.RLock()
			changed := !configsEqual(vc.Config, newConfig)
			vc.mu.RUnlock()

			if changed {
				slog.Info("config file changed", "file", vc.configFile)
				vc.apply(newConfig)
			}
		}
	}()
}

// configsEqual checks if two configs are equal by comparing their string
// representations. Good enough for change detection on a small struct.
//
// configsEqual 通过比较字符串表示来检查两个配置是否相等。
// 对于小型结构体的变更检测来说足够了。
func configsEqual(c1, c2 *Config) bool {
	return fmt.Sprintf("%v", c1) == fmt.Sprintf("%v", c2)
}
