// Package utils 提供店面内部使用的通用工具函数
// 这些函数无业务含义，可被任何内部模块安全使用
package utils

import "hash/fnv"

// Hash64 使用FNV-1a算法计算字符串的64位哈希值
// 用于存储层的分片选择
func Hash64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
