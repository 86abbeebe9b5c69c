// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordTransferCreated(status string)
	RecordInsufficientBalance()
	RecordStoreFailure(operation string)
	RecordProjectionRefresh(count int)
	RecordBalanceMismatch()
	RecordHTTPStatus(statusCode int)
	RecordStoreLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	transfersCreated    *prometheus.CounterVec
	insufficientBalance prometheus.Counter
	storeFailures       *prometheus.CounterVec
	projectionRefreshes prometheus.Counter
	projectionSize      prometheus.Gauge
	balanceMismatches   prometheus.Counter
	httpStatus          *prometheus.CounterVec
	storeLatency        prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transfersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerman_transfers_created_total",
			Help: "作成された送金のステータス別合計数",
		}, []string{"status"}),
		insufficientBalance: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerman_insufficient_balance_total",
			Help: "残高不足で拒否された送金の合計数",
		}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerman_store_failures_total",
			Help: "ストア操作失敗の操作種別合計数",
		}, []string{"operation"}),
		projectionRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerman_projection_refreshes_total",
			Help: "送金射影の全件更新の合計数",
		}),
		projectionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledgerman_projection_size",
			Help: "メモリ射影に保持している送金の件数",
		}),
		balanceMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledgerman_balance_mismatches_total",
			Help: "残高監査で検出した不一致の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledgerman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		storeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerman_store_latency_seconds",
			Help:    "ストア操作のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.transfersCreated,
		c.insufficientBalance,
		c.storeFailures,
		c.projectionRefreshes,
		c.projectionSize,
		c.balanceMismatches,
		c.httpStatus,
		c.storeLatency,
	)

	return c
}

// RecordTransferCreated は送金作成を記録する。
func (c *Collector) RecordTransferCreated(status string) {
	c.transfersCreated.WithLabelValues(status).Inc()
}

// RecordInsufficientBalance は残高不足による拒否を記録する。
func (c *Collector) RecordInsufficientBalance() {
	c.insufficientBalance.Inc()
}

// RecordStoreFailure はストア操作の失敗を記録する。
func (c *Collector) RecordStoreFailure(operation string) {
	c.storeFailures.WithLabelValues(operation).Inc()
}

// RecordProjectionRefresh は射影の全件更新を記録する。
func (c *Collector) RecordProjectionRefresh(count int) {
	c.projectionRefreshes.Inc()
	c.projectionSize.Set(float64(count))
}

// RecordBalanceMismatch は残高監査での不一致検出を記録する。
func (c *Collector) RecordBalanceMismatch() {
	c.balanceMismatches.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordStoreLatency はストア操作のレイテンシを記録する。
func (c *Collector) RecordStoreLatency(duration time.Duration) {
	c.storeLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
