// Package metrics 暴露网关的 Prometheus 指标。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics 指标集合，nil 接收者上的方法均为空操作
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	upstreamErrors *prometheus.CounterVec
	checkouts      *prometheus.CounterVec
	searchStale    prometheus.Counter
	activeSessions prometheus.Gauge
	purgedSessions prometheus.Counter
}

// New 创建指标集合并注册到独立 registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the gateway",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Upstream failures by kind (transport, backend)",
		}, []string{"kind"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_submissions_total",
			Help:      "Checkout submissions by payment method and outcome",
		}, []string{"payment_method", "outcome"}),
		searchStale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_stale_discarded_total",
			Help:      "Search suggestions discarded because a newer query superseded them",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of unexpired shopper sessions",
		}),
		purgedSessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purged_sessions_total",
			Help:      "Expired sessions removed by the worker",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.latency,
		m.upstreamErrors,
		m.checkouts,
		m.searchStale,
		m.activeSessions,
		m.purgedSessions,
	)
	return m
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// UpstreamError 记录上游失败
func (m *Metrics) UpstreamError(kind string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(kind).Inc()
}

// CheckoutSubmitted 记录下单结果（success / failed / rejected）
func (m *Metrics) CheckoutSubmitted(paymentMethod, outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(paymentMethod, outcome).Inc()
}

// SearchDiscarded 记录一次被取代的搜索
func (m *Metrics) SearchDiscarded() {
	if m == nil {
		return
	}
	m.searchStale.Inc()
}

// SetActiveSessions 更新活跃会话数
func (m *Metrics) SetActiveSessions(count int64) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(count))
}

// SessionsPurged 累加清理的会话数
func (m *Metrics) SessionsPurged(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.purgedSessions.Add(float64(count))
}
