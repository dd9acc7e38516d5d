package freshness

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/noobtrump/storefront/internal/storage"
)

// TestTriggerRunsJob 验证触发的任务会被执行
func TestTriggerRunsJob(t *testing.T) {
	r := NewRevalidator(nil)
	defer r.Close()

	done := make(chan struct{})
	if !r.Trigger("k", func(ctx context.Context) { close(done) }) {
		t.Fatal("Trigger returned false on empty queue")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	if r.Triggered() != 1 {
		t.Errorf("Triggered() = %d, want 1", r.Triggered())
	}
}

// TestTriggerDedupesInflightKey 验证同一键的在途任务不会重复调度
func TestTriggerDedupesInflightKey(t *testing.T) {
	r := NewRevalidator(&RevalidatorConfig{Workers: 1})
	defer r.Close()

	block := make(chan struct{})
	var runs int32

	r.Trigger("k", func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
		<-block
	})

	// Wait until the worker picks the job up
	// 等待工作协程取走任务
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if r.Trigger("k", func(ctx context.Context) { atomic.AddInt32(&runs, 1) }) {
		t.Error("Trigger accepted a duplicate for an in-flight key")
	}
	close(block)

	// After completion the key can be triggered again
	// 完成后该键可以再次被触发
	deadline = time.Now().Add(time.Second)
	for r.InFlight() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !r.Trigger("k", func(ctx context.Context) {}) {
		t.Error("Trigger rejected key after previous job finished")
	}
}

// TestTriggerAfterCloseRejected 验证关闭后的触发被拒绝
func TestTriggerAfterCloseRejected(t *testing.T) {
	r := NewRevalidator(nil)
	r.Close()

	if r.Trigger("k", func(ctx context.Context) {}) {
		t.Error("Trigger accepted a job after Close")
	}
}

// TestJobTimeout 验证任务上下文带有超时
func TestJobTimeout(t *testing.T) {
	r := NewRevalidator(&RevalidatorConfig{Timeout: 50 * time.Millisecond})
	defer r.Close()

	canceled := make(chan struct{})
	r.Trigger("k", func(ctx context.Context) {
		<-ctx.Done()
		close(canceled)
	})

	select {
	case <-canceled:
	case <-time.After(2 * time.Second):
		t.Fatal("job context never expired")
	}
}

// TestCloseWaitsForInflight 验证Close等待在途任务完成
func TestCloseWaitsForInflight(t *testing.T) {
	r := NewRevalidator(&RevalidatorConfig{Workers: 2})

	var finished int32
	var started sync.WaitGroup
	started.Add(2)
	for i := 0; i < 2; i++ {
		key := fmt.Sprintf("k%d", i)
		r.Trigger(key, func(ctx context.Context) {
			started.Done()
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&finished, 1)
		})
	}
	started.Wait()

	r.Close()
	if atomic.LoadInt32(&finished) != 2 {
		t.Errorf("Close returned with %d/2 jobs finished", finished)
	}
}

func storedEntry(key string, age, revalidate, stale, expire time.Duration) *storage.Entry {
	now := time.Now().UnixNano()
	return &storage.Entry{
		Key:        key,
		Value:      key,
		FetchedAt:  now - int64(age),
		Revalidate: int64(revalidate),
		Stale:      int64(stale),
		Expire:     int64(expire),
		AccessTime: now,
	}
}

// TestCleanExpiredRemovesOldEntries 验证清理器只移除已过期的条目
func TestCleanExpiredRemovesOldEntries(t *testing.T) {
	store := storage.New(nil)
	store.Set(storedEntry("fresh", 10*time.Second, 30*time.Second, time.Minute, 5*time.Minute))
	store.Set(storedEntry("stale", 45*time.Second, 30*time.Second, time.Minute, 5*time.Minute))
	// 有效过期年龄为 min(30s+60s, 5m) = 90s
	store.Set(storedEntry("dead", 2*time.Minute, 30*time.Second, time.Minute, 5*time.Minute))

	var expired []string
	c := NewCleaner(store, &CleanerConfig{OnExpired: func(key string) { expired = append(expired, key) }})

	removed := c.CleanExpired()
	if removed != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", removed)
	}
	if len(expired) != 1 || expired[0] != "dead" {
		t.Errorf("expired callback got %v, want [dead]", expired)
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Error("fresh entry was removed")
	}
	if _, ok := store.Get("stale"); !ok {
		t.Error("stale entry was removed; stale entries must survive the sweep")
	}
	if c.ExpiredCount() != 1 {
		t.Errorf("ExpiredCount() = %d, want 1", c.ExpiredCount())
	}
}

// TestCleanExpiredRemovesInvalidated 验证被按需失效的条目无论年龄都会被回收
func TestCleanExpiredRemovesInvalidated(t *testing.T) {
	store := storage.New(nil)
	e := storedEntry("young", time.Second, 30*time.Second, time.Minute, 5*time.Minute)
	store.Set(e)
	e.OrFlags(storage.FlagInvalidated)

	c := NewCleaner(store, nil)
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", removed)
	}
}

// TestCleanExpiredUsesInjectedClock 验证清理器使用注入的时间源判断年龄
// 条目的FetchedAt来自一个远落后于墙钟的假时钟；若清理器用墙钟判断，
// 这个新鲜条目会被误回收。
func TestCleanExpiredUsesInjectedClock(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	clock := func() time.Time { return base.Add(10 * time.Second) }

	store := storage.New(nil)
	store.Set(&storage.Entry{
		Key:        "fresh",
		Value:      "v",
		FetchedAt:  base.UnixNano(),
		Revalidate: int64(30 * time.Second),
		Stale:      int64(time.Minute),
		Expire:     int64(5 * time.Minute),
		AccessTime: base.UnixNano(),
	})

	c := NewCleaner(store, &CleanerConfig{Clock: clock})
	if removed := c.CleanExpired(); removed != 0 {
		t.Fatalf("CleanExpired removed %d fresh entries under the injected clock", removed)
	}
	if _, ok := store.Get("fresh"); !ok {
		t.Error("entry the read path still considers fresh was reaped")
	}

	// Advancing the same clock past the effective expiry reaps it
	// 将同一时钟推进到有效过期年龄之后则会回收
	base = base.Add(2 * time.Minute)
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired removed %d, want 1 after clock advance", removed)
	}
}

// TestCleanerPeriodicSweep 验证后台周期清理
func TestCleanerPeriodicSweep(t *testing.T) {
	store := storage.New(nil)
	store.Set(storedEntry("dead", time.Hour, 30*time.Second, 0, time.Minute))

	c := NewCleaner(store, &CleanerConfig{CleanInterval: 20 * time.Millisecond})
	c.Start()
	defer c.Close()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Len() != 0 {
		t.Error("periodic sweep never removed the expired entry")
	}
}
