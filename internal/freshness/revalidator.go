// Package freshness 提供缓存条目生命周期的后台处理
// 包括过时条目的异步重新验证和过期条目的主动清理
package freshness

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// 默认重新验证协程数
	defaultWorkers = 4

	// 默认任务队列长度
	defaultQueueSize = 256

	// 默认单次重新验证超时
	defaultTimeout = 10 * time.Second
)

// Job 表示一次重新验证工作
// 实现方应在ctx取消时尽快返回
type Job func(ctx context.Context)

// RevalidatorConfig 重新验证器配置
type RevalidatorConfig struct {
	// 工作协程数
	Workers int

	// 任务队列长度
	QueueSize int

	// 单次重新验证的超时时间
	Timeout time.Duration
}

// Revalidator 执行过时条目的异步重新验证
// 同一键在任意时刻最多有一个在途任务；重复触发会被吸收。
// 队列满时任务被丢弃，下一次读取会重新触发。
type Revalidator struct {
	jobs      chan task
	timeout   time.Duration
	mu        sync.Mutex
	inflight  map[string]struct{}
	closed    bool
	triggered uint64 // 已入队的任务数（原子）
	dropped   uint64 // 因队列满被丢弃的任务数（原子）
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type task struct {
	key string
	fn  Job
}

// NewRevalidator 创建并启动一个重新验证器
func NewRevalidator(config *RevalidatorConfig) *Revalidator {
	if config == nil {
		config = &RevalidatorConfig{}
	}

	workers := config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	r := &Revalidator{
		jobs:     make(chan task, queueSize),
		timeout:  timeout,
		inflight: make(map[string]struct{}),
	}

	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// Trigger 为键调度一次重新验证
// 如果该键已有在途任务或队列已满，则返回false且不调度。
func (r *Revalidator) Trigger(key string, fn Job) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	if _, busy := r.inflight[key]; busy {
		r.mu.Unlock()
		return false
	}

	select {
	case r.jobs <- task{key: key, fn: fn}:
		r.inflight[key] = struct{}{}
		r.mu.Unlock()
		atomic.AddUint64(&r.triggered, 1)
		return true
	default:
		r.mu.Unlock()
		atomic.AddUint64(&r.dropped, 1)
		return false
	}
}

// Triggered 返回已入队的任务总数
func (r *Revalidator) Triggered() uint64 {
	return atomic.LoadUint64(&r.triggered)
}

// Dropped 返回因队列满被丢弃的任务总数
func (r *Revalidator) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

// InFlight 返回当前在途的任务数
func (r *Revalidator) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

// Close 停止接收新任务并等待在途任务完成
func (r *Revalidator) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.jobs)
	})
	r.wg.Wait()
}

func (r *Revalidator) release(key string) {
	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()
}

// worker 从队列取任务并在超时上下文内执行
func (r *Revalidator) worker() {
	defer r.wg.Done()
	for t := range r.jobs {
		r.run(t)
	}
}

func (r *Revalidator) run(t task) {
	defer r.release(t.key)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	t.fn(ctx)
}
