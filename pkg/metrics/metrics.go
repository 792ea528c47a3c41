// Package metrics 提供 Prometheus 指标集合与暴露端点
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/musicstore/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 结算结果计数，按终态与失败类型划分
	CheckoutsTotal *prometheus.CounterVec
	// 支付授权耗时
	PaymentDuration *prometheus.HistogramVec
	// 库存预留失败次数
	StockReservationFailures prometheus.Counter
	// 补偿动作计数（释放库存、退款）
	CompensationsTotal *prometheus.CounterVec
}

// New 创建指标实例并注册到独立 registry
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musicstore",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "musicstore",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		CheckoutsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musicstore",
			Subsystem: serviceName,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by terminal state and failure kind",
		}, []string{"state", "kind"}),
		PaymentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "musicstore",
			Subsystem: serviceName,
			Name:      "payment_authorize_duration_seconds",
			Help:      "Payment authorization duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"outcome"}),
		StockReservationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "musicstore",
			Subsystem: serviceName,
			Name:      "stock_reservation_failures_total",
			Help:      "Stock reservations rejected for insufficient stock",
		}),
		CompensationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "musicstore",
			Subsystem: serviceName,
			Name:      "compensations_total",
			Help:      "Compensating actions executed",
		}, []string{"action", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CheckoutsTotal,
		m.PaymentDuration,
		m.StockReservationFailures,
		m.CompensationsTotal,
	)
	return m
}

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回指标暴露 handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, fmt.Sprintf("%d", statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCheckout 记录结算终态
func (m *Metrics) RecordCheckout(state, kind string) {
	m.CheckoutsTotal.WithLabelValues(state, kind).Inc()
}

// RecordPayment 记录支付耗时
func (m *Metrics) RecordPayment(outcome string, duration time.Duration) {
	m.PaymentDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordReservationFailure 记录库存不足
func (m *Metrics) RecordReservationFailure() {
	m.StockReservationFailures.Inc()
}

// RecordCompensation 记录补偿动作
func (m *Metrics) RecordCompensation(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CompensationsTotal.WithLabelValues(action, result).Inc()
}

// StartHTTPServer 启动 Prometheus HTTP 服务器，ctx 结束时关闭
func (m *Metrics) StartHTTPServer(ctx context.Context, port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info(ctx, "Starting Prometheus HTTP server", "addr", srv.Addr, "path", path)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
