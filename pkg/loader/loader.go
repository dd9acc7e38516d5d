// Package loader provides interfaces for loading data into the cache
// when an entry is missing, expired, or due for revalidation.
//
// Package loader 提供在条目缺失、过期或需要重新验证时
// 将数据加载到缓存中的接口。
package loader

import (
	"context"
	"time"
)

// Directives carries the lifecycle declaration a load attaches to its value.
// Zero durations fall back to the cache's default lifetime.
//
// Directives 携带一次加载附加到其值上的生命周期声明。
// 零时长回退到缓存的默认生命周期。
type Directives struct {
	// Stale is the serve-while-revalidate window after Revalidate.
	// Stale 是Revalidate之后的边提供边重新验证窗口。
	Stale time.Duration

	// Revalidate is the age at which the value stops being fresh.
	// Revalidate 是值不再新鲜的年龄。
	Revalidate time.Duration

	// Expire is the age at which the value is discarded unconditionally.
	// Expire 是值被无条件丢弃的年龄。
	Expire time.Duration

	// Tags are invalidation tags attached to the cached value.
	// Tags 是附加到缓存值上的失效标签。
	Tags []string

	// Path is the origin path for path-based invalidation.
	// Path 是用于基于路径失效的来源路径。
	Path string
}

// Result is the outcome of a successful load.
//
// Result 是一次成功加载的结果。
type Result struct {
	Value      interface{} // Loaded value / 加载的值
	Directives Directives  // Lifecycle declaration / 生命周期声明
}

// Loader is the interface that wraps the basic Load method.
//
// Load retrieves data for the given key from a data source and declares
// the lifecycle of the resulting cache entry.
//
// Loader 是包装基本Load方法的接口。
//
// Load 从数据源检索给定键的数据，并声明所得缓存条目的生命周期。
type Loader interface {
	Load(ctx context.Context, key string) (*Result, error)
}

// Func is a function type that implements the Loader interface.
//
// Func 是实现Loader接口的函数类型。
type Func func(ctx context.Context, key string) (*Result, error)

// Load calls the function itself.
//
// Load 调用函数本身。
func (f Func) Load(ctx context.Context, key string) (*Result, error) {
	return f(ctx, key)
}

// New creates a Loader from a plain value-returning function; the cache's
// default lifetime applies.
//
// New 从普通的返回值函数创建Loader；应用缓存的默认生命周期。
func New(fn func(ctx context.Context, key string) (interface{}, error)) Loader {
	return Func(func(ctx context.Context, key string) (*Result, error) {
		value, err := fn(ctx, key)
		if err != nil {
			return nil, err
		}
		return &Result{Value: value}, nil
	})
}

// NewWithDirectives creates a Loader that attaches a fixed lifecycle
// declaration to every loaded value.
//
// NewWithDirectives 创建一个为每个加载值附加固定生命周期声明的Loader。
func NewWithDirectives(d Directives, fn func(ctx context.Context, key string) (interface{}, error)) Loader {
	return Func(func(ctx context.Context, key string) (*Result, error) {
		value, err := fn(ctx, key)
		if err != nil {
			return nil, err
		}
		return &Result{Value: value, Directives: d}, nil
	})
}
