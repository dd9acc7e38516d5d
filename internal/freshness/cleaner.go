// Package freshness 提供缓存条目生命周期的后台处理
package freshness

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/noobtrump/storefront/internal/storage"
)

const (
	// 默认清理间隔
	defaultCleanInterval = 30 * time.Second

	// 默认每轮清理的最大项数
	defaultMaxCleanItems = 1000
)

// CleanerConfig 清理器配置
type CleanerConfig struct {
	// 清理间隔
	CleanInterval time.Duration

	// 每轮清理的最大项数
	MaxCleanItems int

	// 过期回调函数
	OnExpired func(key string)

	// 时间源，必须与读取路径使用同一时间源，nil时使用time.Now
	Clock func() time.Time
}

// Cleaner 周期性移除已过期或已被按需失效的条目
// 过期条目在读取路径上已被视为不存在，清理器负责回收其内存。
type Cleaner struct {
	store         *storage.Store // 存储引用
	cleanInterval time.Duration  // 清理间隔
	maxCleanItems int            // 每轮清理的最大项数
	onExpired     func(key string)
	now           func() time.Time // 时间源，与读取路径一致
	cleanCount    uint64        // 清理轮数（原子）
	expiredCount  uint64        // 已清理的过期条目数（原子）
	closeChan     chan struct{} // 关闭信号
	closeOnce     sync.Once     // 确保只关闭一次
	wg            sync.WaitGroup
}

// NewCleaner 创建一个新的清理器，需调用Start启动
func NewCleaner(store *storage.Store, config *CleanerConfig) *Cleaner {
	if config == nil {
		config = &CleanerConfig{}
	}

	cleanInterval := config.CleanInterval
	if cleanInterval <= 0 {
		cleanInterval = defaultCleanInterval
	}
	maxCleanItems := config.MaxCleanItems
	if maxCleanItems <= 0 {
		maxCleanItems = defaultMaxCleanItems
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}

	return &Cleaner{
		store:         store,
		cleanInterval: cleanInterval,
		maxCleanItems: maxCleanItems,
		onExpired:     config.OnExpired,
		now:           now,
		closeChan:     make(chan struct{}),
	}
}

// Start 启动后台清理协程
func (c *Cleaner) Start() {
	c.wg.Add(1)
	go c.loop()
}

// Close 停止清理协程并等待其退出
func (c *Cleaner) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})
	c.wg.Wait()
}

// CleanCount 返回累计清理轮数
func (c *Cleaner) CleanCount() uint64 {
	return atomic.LoadUint64(&c.cleanCount)
}

// ExpiredCount 返回累计清理的过期条目数
func (c *Cleaner) ExpiredCount() uint64 {
	return atomic.LoadUint64(&c.expiredCount)
}

func (c *Cleaner) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanExpired()
		case <-c.closeChan:
			return
		}
	}
}

// CleanExpired 执行一轮清理，返回本轮移除的条目数
// 每轮最多移除maxCleanItems个条目，避免长时间持有分片锁。
func (c *Cleaner) CleanExpired() int {
	atomic.AddUint64(&c.cleanCount, 1)

	now := c.now().UnixNano()
	victims := make([]string, 0, 64)

	c.store.Range(func(e *storage.Entry) bool {
		if isRemovable(e, now) {
			victims = append(victims, e.Key)
		}
		return len(victims) < c.maxCleanItems
	})

	removed := 0
	for _, key := range victims {
		if c.store.Delete(key) {
			removed++
			if c.onExpired != nil {
				c.onExpired(key)
			}
		}
	}

	atomic.AddUint64(&c.expiredCount, uint64(removed))
	return removed
}

// isRemovable 判断条目是否可以回收
// 条目在达到有效过期年龄或被按需失效后即可回收。
func isRemovable(e *storage.Entry, now int64) bool {
	if e.LoadFlags()&storage.FlagInvalidated != 0 {
		return true
	}
	exp := e.Expire
	if e.Stale > 0 {
		if add := e.Revalidate + e.Stale; add < exp {
			exp = add
		}
	}
	return now-e.FetchedAt >= exp
}
