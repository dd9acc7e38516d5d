package eviction

import (
	"fmt"
	"testing"
	"time"

	"github.com/noobtrump/storefront/internal/storage"
)

func fill(store *storage.Store, n int, base time.Time) {
	for i := 0; i < n; i++ {
		now := base.Add(time.Duration(i) * time.Second).UnixNano()
		store.Set(&storage.Entry{
			Key:        fmt.Sprintf("k%d", i),
			Value:      i,
			FetchedAt:  now,
			Revalidate: int64(30 * time.Second),
			Expire:     int64(5 * time.Minute),
			AccessTime: now,
		})
	}
}

// TestMaybeEvictUnderLimit 验证未超上限时不淘汰
func TestMaybeEvictUnderLimit(t *testing.T) {
	store := storage.New(nil)
	fill(store, 5, time.Now())

	p := NewSampledLRU(store, &Config{MaxEntries: 10})
	if evicted := p.MaybeEvict(); evicted != 0 {
		t.Errorf("MaybeEvict evicted %d under the limit", evicted)
	}
	if p.Evictions() != 0 {
		t.Errorf("Evictions() = %d, want 0", p.Evictions())
	}
}

// TestMaybeEvictEnforcesLimit 验证超上限时淘汰到上限以内
func TestMaybeEvictEnforcesLimit(t *testing.T) {
	store := storage.New(nil)
	fill(store, 20, time.Now())

	p := NewSampledLRU(store, &Config{MaxEntries: 10, SampleSize: 5})
	evicted := p.MaybeEvict()
	if evicted != 10 {
		t.Errorf("MaybeEvict evicted %d, want 10", evicted)
	}
	if store.Len() != 10 {
		t.Errorf("Len() = %d after eviction, want 10", store.Len())
	}
	if p.Evictions() != 10 {
		t.Errorf("Evictions() = %d, want 10", p.Evictions())
	}
}

// TestEvictPrefersLeastRecentlyUsed 验证全量采样时淘汰最久未访问的条目
func TestEvictPrefersLeastRecentlyUsed(t *testing.T) {
	store := storage.New(nil)
	base := time.Now()
	fill(store, 4, base)

	// k0 has the oldest access time; a full sample must pick it
	// k0 的访问时间最早；全量采样必须选中它
	p := NewSampledLRU(store, &Config{MaxEntries: 3, SampleSize: 10})
	if evicted := p.MaybeEvict(); evicted != 1 {
		t.Fatalf("MaybeEvict evicted %d, want 1", evicted)
	}
	if _, ok := store.Get("k0"); ok {
		t.Error("k0 survived although it was the least recently used")
	}
}

// TestZeroLimitDisablesEviction 验证上限为0时淘汰被禁用
func TestZeroLimitDisablesEviction(t *testing.T) {
	store := storage.New(nil)
	fill(store, 50, time.Now())

	p := NewSampledLRU(store, nil)
	if evicted := p.MaybeEvict(); evicted != 0 {
		t.Errorf("MaybeEvict evicted %d with no limit", evicted)
	}
}
