// Package metrics 提供商城运行时指标的采集和输出
// 基于prometheus/client_golang，缓存指标通过GaugeFunc从缓存统计快照读取。
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noobtrump/storefront/pkg/cache"
)

const namespace = "storefront"

// Metrics 持有注册表和HTTP层指标
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New 创建指标集并注册缓存统计采集器
// statsFn为nil时只注册HTTP层指标。
func New(statsFn func(ctx context.Context) (*cache.Stats, error)) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	registry.MustRegister(m.requestsTotal, m.requestDuration)

	if statsFn != nil {
		registerCacheStats(registry, statsFn)
	}
	return m
}

// ObserveRequest 记录一次HTTP请求
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler 返回Prometheus文本格式的HTTP处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// cacheStat 描述一个从缓存统计快照导出的指标
type cacheStat struct {
	name string
	help string
	get  func(*cache.Stats) float64
}

// registerCacheStats 将缓存统计注册为GaugeFunc
func registerCacheStats(registry *prometheus.Registry, statsFn func(ctx context.Context) (*cache.Stats, error)) {
	stats := []cacheStat{
		{"cache_entries", "Current number of cache entries.", func(s *cache.Stats) float64 { return float64(s.EntryCount) }},
		{"cache_hits_total", "Total number of cache hits (fresh or stale).", func(s *cache.Stats) float64 { return float64(s.Hits) }},
		{"cache_misses_total", "Total number of blocking loads.", func(s *cache.Stats) float64 { return float64(s.Misses) }},
		{"cache_stale_serves_total", "Total number of stale serves.", func(s *cache.Stats) float64 { return float64(s.StaleServes) }},
		{"cache_revalidations_total", "Total number of completed background revalidations.", func(s *cache.Stats) float64 { return float64(s.Revalidations) }},
		{"cache_revalidation_failures_total", "Total number of failed background revalidations.", func(s *cache.Stats) float64 { return float64(s.RevalidationFailures) }},
		{"cache_invalidations_total", "Total number of on-demand invalidations.", func(s *cache.Stats) float64 { return float64(s.Invalidations) }},
		{"cache_evictions_total", "Total number of capacity evictions.", func(s *cache.Stats) float64 { return float64(s.Evictions) }},
		{"cache_expirations_total", "Total number of entries reclaimed by the cleaner.", func(s *cache.Stats) float64 { return float64(s.Expirations) }},
	}

	for _, st := range stats {
		get := st.get
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      st.name,
			Help:      st.help,
		}, func() float64 {
			snapshot, err := statsFn(context.Background())
			if err != nil {
				return 0
			}
			return get(snapshot)
		}))
	}
}
