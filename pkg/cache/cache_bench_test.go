package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/noobtrump/storefront/pkg/loader"
)

func benchLoader() loader.Loader {
	return loader.New(func(ctx context.Context, key string) (interface{}, error) {
		return key, nil
	})
}

// BenchmarkGetOrLoadFresh measures the hot path: every read after the first
// hits a fresh entry and never touches the loader.
func BenchmarkGetOrLoadFresh(b *testing.B) {
	c, err := New("bench", WithMaxEntries(0))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	ld := benchLoader()
	if _, _, err := c.GetOrLoad(ctx, "key", ld); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := c.GetOrLoad(ctx, "key", ld); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkGetOrLoadParallel measures fresh reads across a spread keyspace
// under concurrency, which exercises the shard locks.
func BenchmarkGetOrLoadParallel(b *testing.B) {
	c, err := New("bench", WithMaxEntries(0), WithShards(64))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	ld := benchLoader()
	const keys = 1024
	for i := 0; i < keys; i++ {
		if _, _, err := c.GetOrLoad(ctx, fmt.Sprintf("key-%d", i), ld); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			key := fmt.Sprintf("key-%d", i%keys)
			if _, _, err := c.GetOrLoad(ctx, key, ld); err != nil {
				b.Fatal(err)
			}
			i++
		}
	})
}

// BenchmarkSet measures direct writes with explicit directives.
func BenchmarkSet(b *testing.B) {
	c, err := New("bench", WithMaxEntries(0))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	ctx := context.Background()
	d := loader.Directives{Revalidate: time.Minute, Expire: 5 * time.Minute}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Set(ctx, fmt.Sprintf("key-%d", i%4096), i, d); err != nil {
			b.Fatal(err)
		}
	}
}
