// Package metrics 定义 Prometheus 指标
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal 按路由与状态码统计请求数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipehub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipehub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ShoppingReportsTotal 购物清单生成次数
	ShoppingReportsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipehub_shopping_reports_total",
			Help: "Total number of shopping list reports built",
		},
	)

	ShoppingReportLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipehub_shopping_report_lines",
			Help:    "Number of aggregated lines per shopping list report",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	// MembershipChangesTotal 收藏/购物车/订阅的增删
	MembershipChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipehub_membership_changes_total",
			Help: "Total number of favorite, shopping cart and follow changes",
		},
		[]string{"kind", "action"},
	)

	CatalogCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipehub_catalog_cache_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"},
	)
)

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveReport 记录一次购物清单生成
func ObserveReport(lines int) {
	ShoppingReportsTotal.Inc()
	ShoppingReportLines.Observe(float64(lines))
}

// RecordMembership kind: favorite, shopping_cart, follow; action: add, remove
func RecordMembership(kind, action string) {
	MembershipChangesTotal.WithLabelValues(kind, action).Inc()
}

// RecordCache result: hit, miss, error
func RecordCache(result string) {
	CatalogCacheTotal.WithLabelValues(result).Inc()
}
