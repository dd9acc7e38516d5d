package cache

import (
	"fmt"
	"time"

	"github.com/noobtrump/storefront/pkg/errors"
)

// State describes the freshness of a cache entry at a given age.
// The lifecycle is a pure function of the entry's age and its Lifetime,
// except for on-demand invalidation which forces the Expired state.
//
// State 描述缓存条目在给定年龄下的新鲜度。
// 生命周期是条目年龄及其Lifetime的纯函数，
// 按需失效是唯一的例外，它会强制进入Expired状态。
type State int

const (
	// StateMiss means no entry exists for the key.
	// StateMiss 表示该键没有对应的条目。
	StateMiss State = iota

	// StateFresh means the entry is served as-is with no background work.
	// StateFresh 表示条目按原样提供，没有任何后台工作。
	StateFresh

	// StateStale means the entry is served immediately while an asynchronous
	// revalidation is scheduled; later reads observe the refreshed value.
	// StateStale 表示条目立即提供，同时调度异步重新验证；后续读取会观察到刷新后的值。
	StateStale

	// StateExpired means the entry is treated as absent and the caller must
	// block on a full reload before responding.
	// StateExpired 表示条目被视为不存在，调用者必须阻塞等待完整重新加载后才能响应。
	StateExpired
)

// String returns a short lowercase name, suitable for response headers and logs.
// String 返回简短的小写名称，适用于响应头和日志。
func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateExpired:
		return "expired"
	default:
		return "miss"
	}
}

// Lifetime declares the three durations governing an entry's lifecycle.
//
// The age thresholds are:
//
//	age <  Revalidate                 -> Fresh
//	Revalidate <= age < exp           -> Stale (serve + background revalidation)
//	age >= exp                        -> Expired (blocking reload)
//
// where exp is the effective expiry: min(Revalidate+Stale, Expire) when
// Stale > 0, otherwise Expire. The Expire cap guarantees that age == Expire
// is always Expired regardless of the Stale window.
//
// Lifetime 声明控制条目生命周期的三个时长。
//
// 年龄阈值为：
//
//	age <  Revalidate                 -> Fresh（新鲜）
//	Revalidate <= age < exp           -> Stale（过时：立即提供并后台重新验证）
//	age >= exp                        -> Expired（过期：阻塞重新加载）
//
// 其中exp是有效过期时间：当Stale > 0时为min(Revalidate+Stale, Expire)，
// 否则为Expire。Expire上限保证age == Expire时无论Stale窗口如何都是Expired。
type Lifetime struct {
	// Stale is the window after Revalidate during which the old value may
	// still be served while revalidation runs in the background.
	// Stale 是Revalidate之后的窗口，在此期间旧值仍可提供，同时后台进行重新验证。
	Stale time.Duration `json:"stale" yaml:"stale"`

	// Revalidate is the age at which the entry stops being Fresh.
	// Revalidate 是条目不再新鲜的年龄。
	Revalidate time.Duration `json:"revalidate" yaml:"revalidate"`

	// Expire is the age at which the entry is discarded unconditionally.
	// Expire 是条目被无条件丢弃的年龄。
	Expire time.Duration `json:"expire" yaml:"expire"`
}

// Validate checks that the lifetime thresholds are ordered.
//
// Validate 检查生命周期阈值的顺序是否正确。
func (l Lifetime) Validate() error {
	if l.Revalidate <= 0 {
		return fmt.Errorf("%w: revalidate must be positive, got %s", errors.ErrInvalidLifetime, l.Revalidate)
	}
	if l.Expire <= l.Revalidate {
		return fmt.Errorf("%w: expire (%s) must exceed revalidate (%s)", errors.ErrInvalidLifetime, l.Expire, l.Revalidate)
	}
	if l.Stale < 0 {
		return fmt.Errorf("%w: stale must not be negative, got %s", errors.ErrInvalidLifetime, l.Stale)
	}
	return nil
}

// IsZero reports whether the lifetime is unset.
// IsZero 返回生命周期是否未设置。
func (l Lifetime) IsZero() bool {
	return l.Stale == 0 && l.Revalidate == 0 && l.Expire == 0
}

// EffectiveExpire returns the age at which the entry becomes Expired.
// The additive Stale window never extends past Expire.
//
// EffectiveExpire 返回条目变为Expired的年龄。
// 叠加的Stale窗口永远不会超过Expire。
func (l Lifetime) EffectiveExpire() time.Duration {
	if l.Stale <= 0 {
		return l.Expire
	}
	exp := l.Revalidate + l.Stale
	if exp > l.Expire {
		return l.Expire
	}
	return exp
}

// Classify maps an entry age onto the lifecycle state.
// Negative ages (clock skew) are treated as zero.
//
// Classify 将条目年龄映射到生命周期状态。
// 负年龄（时钟偏差）被视为零。
func (l Lifetime) Classify(age time.Duration) State {
	if age < 0 {
		age = 0
	}
	if age >= l.EffectiveExpire() {
		return StateExpired
	}
	if age >= l.Revalidate {
		return StateStale
	}
	return StateFresh
}
