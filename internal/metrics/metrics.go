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
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordPostCreated()
	RecordPostUpdated()
	RecordPostDeleted()
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	postsCreated   prometheus.Counter
	postsUpdated   prometheus.Counter
	postsDeleted   prometheus.Counter
	loginSuccess   prometheus.Counter
	loginFailure   prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mvccms_posts_created_total",
			Help: "作成された記事の合計数",
		}),
		postsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mvccms_posts_updated_total",
			Help: "更新された記事の合計数",
		}),
		postsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mvccms_posts_deleted_total",
			Help: "削除された記事の合計数",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mvccms_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mvccms_login_failure_total",
			Help: "ログイン失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mvccms_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mvccms_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.postsCreated,
		c.postsUpdated,
		c.postsDeleted,
		c.loginSuccess,
		c.loginFailure,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordPostCreated は記事作成を記録する。
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordPostUpdated は記事更新を記録する。
func (c *Collector) RecordPostUpdated() {
	c.postsUpdated.Inc()
}

// RecordPostDeleted は記事削除を記録する。
func (c *Collector) RecordPostDeleted() {
	c.postsDeleted.Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFailure.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
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
