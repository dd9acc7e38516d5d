// Package eviction 提供缓存淘汰策略实现
// 当条目数超过上限时，通过随机采样挑选最久未访问的条目进行淘汰，
// 避免为淘汰决策维护全局有序结构。
package eviction

import (
	"sync/atomic"

	"github.com/noobtrump/storefront/internal/storage"
)

const (
	// 默认采样大小
	defaultSampleSize = 8
)

// SampledLRU 实现基于采样的LRU淘汰策略
// 每次淘汰时从存储中抽取一批候选条目，移除其中最后访问时间最早的一个。
// 采样淘汰的精度低于严格LRU，但开销与缓存规模无关。
type SampledLRU struct {
	store      *storage.Store // 存储引用
	sampleSize int            // 采样大小
	maxEntries int64          // 条目数上限（0表示不限制）
	evictions  uint64         // 淘汰计数（原子）
}

// Config 淘汰策略配置
type Config struct {
	// 条目数上限，0表示不限制
	MaxEntries int

	// 每次淘汰决策的采样大小
	SampleSize int
}

// NewSampledLRU 创建一个新的采样LRU淘汰策略
func NewSampledLRU(store *storage.Store, config *Config) *SampledLRU {
	if config == nil {
		config = &Config{}
	}
	sampleSize := config.SampleSize
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	return &SampledLRU{
		store:      store,
		sampleSize: sampleSize,
		maxEntries: int64(config.MaxEntries),
	}
}

// Evictions 返回累计淘汰次数
func (p *SampledLRU) Evictions() uint64 {
	return atomic.LoadUint64(&p.evictions)
}

// MaybeEvict 在存储超过条目上限时淘汰条目，返回淘汰数量
// 在每次Set之后调用；一次调用最多淘汰超出上限的数量。
func (p *SampledLRU) MaybeEvict() int {
	if p.maxEntries <= 0 {
		return 0
	}

	evicted := 0
	for p.store.Len() > p.maxEntries {
		victim := p.pick()
		if victim == nil {
			break
		}
		if p.store.Delete(victim.Key) {
			atomic.AddUint64(&p.evictions, 1)
			evicted++
		}
	}
	return evicted
}

// pick 从采样候选中选择最后访问时间最早的条目
func (p *SampledLRU) pick() *storage.Entry {
	candidates := p.store.Sample(p.sampleSize)
	if len(candidates) == 0 {
		return nil
	}

	victim := candidates[0]
	oldest := victim.LastAccess()
	for _, e := range candidates[1:] {
		if at := e.LastAccess(); at < oldest {
			oldest = at
			victim = e
		}
	}
	return victim
}
