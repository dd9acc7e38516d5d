// Package errors provides standardized error types for the storefront cache.
// It defines common error types, error wrapping, and helper functions
// for error checking and handling across the cache and catalog layers.
//
// Package errors 提供商城缓存的标准化错误类型。
// 它定义了常见错误类型、错误包装以及用于缓存层和商品目录层的错误检查辅助函数。
package errors

import (
	"errors"
	"fmt"
)

// Standard errors that can be returned by the cache and the catalog service.
// These provide consistent error types across the implementation.
//
// 缓存和商品目录服务可能返回的标准错误。
// 这些提供了实现中一致的错误类型。
var (
	// ErrNotFound is returned when a key is not found in the cache.
	// 当在缓存中找不到键时返回ErrNotFound。
	ErrNotFound = errors.New("cache: key not found")

	// ErrKeyEmpty is returned when an empty key is provided.
	// 当提供空键时返回ErrKeyEmpty。
	ErrKeyEmpty = errors.New("cache: key is empty")

	// ErrInvalidLifetime is returned when a lifetime with revalidate >= expire
	// or a non-positive revalidate window is provided.
	// 当提供revalidate >= expire或revalidate窗口非正的生命周期时返回ErrInvalidLifetime。
	ErrInvalidLifetime = errors.New("cache: invalid lifetime")

	// ErrNoLoader is returned when a read-through operation is attempted
	// without a loader.
	// 当没有加载器却尝试回源读取操作时返回ErrNoLoader。
	ErrNoLoader = errors.New("cache: no loader configured")

	// ErrLoadFailed is returned when the loader could not produce a value.
	// 当加载器无法产生值时返回ErrLoadFailed。
	ErrLoadFailed = errors.New("cache: load failed")

	// ErrClosed is returned when an operation is performed on a closed cache.
	// 当对已关闭的缓存执行操作时返回ErrClosed。
	ErrClosed = errors.New("cache: cache is closed")

	// ErrProductNotFound is returned when the upstream catalog has no product
	// for the requested identifier.
	// 当上游商品目录中不存在请求的商品ID时返回ErrProductNotFound。
	ErrProductNotFound = errors.New("catalog: product not found")

	// ErrUpstreamUnavailable is returned when the upstream catalog API could
	// not be reached or answered with a server error.
	// 当无法连接上游商品API或其返回服务器错误时返回ErrUpstreamUnavailable。
	ErrUpstreamUnavailable = errors.New("catalog: upstream unavailable")
)

// KeyError represents an error related to a specific cache key.
// It wraps an underlying error with the key that caused the error.
//
// KeyError 表示与特定缓存键相关的错误。
// 它用导致错误的键包装底层错误。
type KeyError struct {
	Key string // The key that caused the error / 导致错误的键
	Err error  // The underlying error / 底层错误
}

// Error returns the error message.
// It implements the error interface.
//
// Error 返回错误消息。
// 它实现了error接口。
func (e *KeyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Key)
}

// Unwrap returns the underlying error.
// This allows errors.Is and errors.As to work with wrapped errors.
//
// Unwrap 返回底层错误。
// 这允许errors.Is和errors.As与包装的错误一起工作。
func (e *KeyError) Unwrap() error {
	return e.Err
}

// NewKeyError creates a new KeyError.
// It associates a key with an error.
//
// NewKeyError 创建一个新的KeyError。
// 它将键与错误关联起来。
func NewKeyError(key string, err error) *KeyError {
	return &KeyError{Key: key, Err: err}
}

// IsNotFound returns true if the error indicates that a cache key was not found.
//
// IsNotFound 如果错误表示未找到缓存键，则返回true。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsProductNotFound returns true if the error indicates a missing upstream product.
//
// IsProductNotFound 如果错误表示上游商品缺失，则返回true。
func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsUpstreamUnavailable returns true if the error indicates an unreachable or
// failing upstream API.
//
// IsUpstreamUnavailable 如果错误表示上游API不可达或失败，则返回true。
func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// IsLoadFailed returns true if the error indicates that a read-through load failed.
//
// IsLoadFailed 如果错误表示回源加载失败，则返回true。
func IsLoadFailed(err error) bool {
	return errors.Is(err, ErrLoadFailed)
}

// IsClosed returns true if the error indicates that the cache is closed.
//
// IsClosed 如果错误表示缓存已关闭，则返回true。
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
