// Package metrics 提供 Prometheus 指标集合，覆盖 HTTP、交易生命周期、现金流与 outbox 投递
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 生命周期操作计数，按 operation/result 区分
	LifecycleOpsTotal *prometheus.CounterVec
	// 生命周期操作耗时
	LifecycleOpDuration *prometheus.HistogramVec
	// 生成的现金流条数
	CashflowsGenerated prometheus.Counter

	// outbox 投递条数，按 result 区分
	OutboxRelayed *prometheus.CounterVec
	// 缓存命中/未命中，按 cache/result 区分
	CacheLookups *prometheus.CounterVec
}

// New 创建指标实例，使用独立 registry 避免重复注册
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		LifecycleOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "lifecycle_operations_total",
			Help:      "Trade lifecycle operations by result",
		}, []string{"operation", "result"}),
		LifecycleOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "lifecycle_operation_duration_seconds",
			Help:      "Trade lifecycle operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		CashflowsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "cashflows_generated_total",
			Help:      "Total cashflows generated",
		}),

		OutboxRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "outbox_relayed_total",
			Help:      "Outbox messages relayed to the broker",
		}, []string{"result"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "cache_lookups_total",
			Help:      "Read-through cache lookups",
		}, []string{"cache", "result"}),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LifecycleOpsTotal,
		m.LifecycleOpDuration,
		m.CashflowsGenerated,
		m.OutboxRelayed,
		m.CacheLookups,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry 返回指标 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// 以下记录方法允许 nil 接收者，未启用指标时调用方无需判空

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLifecycleOp 记录生命周期操作
func (m *Metrics) RecordLifecycleOp(operation, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LifecycleOpsTotal.WithLabelValues(operation, result).Inc()
	m.LifecycleOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCashflows 记录生成的现金流条数
func (m *Metrics) RecordCashflows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CashflowsGenerated.Add(float64(n))
}

// RecordOutbox 记录 outbox 投递结果
func (m *Metrics) RecordOutbox(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OutboxRelayed.WithLabelValues(result).Add(float64(n))
}

// RecordCacheLookup 记录缓存查询结果
func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}
