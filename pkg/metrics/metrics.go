// Package metrics 提供 Prometheus helper，包含本服务的业务与 HTTP 指标
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pkgLogger "github.com/wyfcoding/ordermanagement/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 下单成功计数
	OrdersPlacedTotal prometheus.Counter
	// 下单失败计数
	OrdersFailedTotal prometheus.Counter
	// 订单取消计数
	OrdersCancelledTotal prometheus.Counter
	// 库存预留成功计数
	StockReservationsTotal prometheus.Counter
	// 库存不足拒绝计数
	InsufficientStockTotal prometheus.Counter
	// 库存回补计数
	StockReleasesTotal prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordermanagement",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ordermanagement",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		OrdersPlacedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordermanagement",
			Subsystem: serviceName,
			Name:      "orders_placed_total",
			Help:      "Successfully placed orders",
		}),
		OrdersFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordermanagement",
			Subsystem: serviceName,
			Name:      "orders_failed_total",
			Help:      "Rejected or failed order placements",
		}),
		OrdersCancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordermanagement",
			Subsystem: serviceName,
			Name:      "orders_cancelled_total",
			Help:      "Cancelled orders",
		}),
		StockReservationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordermanagement",
			Subsystem: serviceName,
			Name:      "stock_reservations_total",
			Help:      "Successful stock reservations",
		}),
		InsufficientStockTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordermanagement",
			Subsystem: serviceName,
			Name:      "insufficient_stock_total",
			Help:      "Reservations rejected for insufficient stock",
		}),
		StockReleasesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ordermanagement",
			Subsystem: serviceName,
			Name:      "stock_releases_total",
			Help:      "Stock quantities released back",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrdersPlacedTotal,
		m.OrdersFailedTotal,
		m.OrdersCancelledTotal,
		m.StockReservationsTotal,
		m.InsufficientStockTotal,
		m.StockReleasesTotal,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// StartHTTPServer 启动指标 HTTP 服务
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	go func() {
		addr := fmt.Sprintf(":%d", port)
		pkgLogger.Info(context.Background(), "metrics server listening", "addr", addr, "path", path)
		if err := http.ListenAndServe(addr, mux); err != nil {
			pkgLogger.Error(context.Background(), "metrics server error", "error", err)
		}
	}()
	return nil
}
