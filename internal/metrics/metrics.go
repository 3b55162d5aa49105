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
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordAuthRejection(reason string)
	RecordLogin(result string)
	RecordBookingCreated()
	RecordBookingConflict()
	RecordBookingStatusChange(status string)
	RecordEventPublishFailure(eventType string)
}

// ログイン結果ラベル
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	authRejections   *prometheus.CounterVec
	logins           *prometheus.CounterVec
	bookingsCreated  prometheus.Counter
	bookingConflicts prometheus.Counter
	statusChanges    *prometheus.CounterVec
	publishFailures  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetx_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meetx_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetx_auth_rejections_total",
			Help: "認証ガードで拒否されたリクエスト数（理由別）",
		}, []string{"reason"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetx_logins_total",
			Help: "ログイン試行数（結果別）",
		}, []string{"result"}),
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meetx_bookings_created_total",
			Help: "作成された予約の合計数",
		}),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meetx_booking_conflicts_total",
			Help: "重複予約として拒否された作成要求の合計数",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetx_booking_status_changes_total",
			Help: "予約状態の変更数（変更後の状態別）",
		}, []string{"status"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meetx_event_publish_failures_total",
			Help: "予約イベントの送信失敗数（イベント種別別）",
		}, []string{"type"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.authRejections,
		c.logins,
		c.bookingsCreated,
		c.bookingConflicts,
		c.statusChanges,
		c.publishFailures,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordAuthRejection は認証ガードでの拒否を記録する。
// reason は missing, malformed, tampered, expired のいずれか。
func (c *Collector) RecordAuthRejection(reason string) {
	c.authRejections.WithLabelValues(reason).Inc()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordBookingCreated は予約作成を記録する。
func (c *Collector) RecordBookingCreated() {
	c.bookingsCreated.Inc()
}

// RecordBookingConflict は重複予約の拒否を記録する。
func (c *Collector) RecordBookingConflict() {
	c.bookingConflicts.Inc()
}

// RecordBookingStatusChange は予約状態の変更を記録する。
func (c *Collector) RecordBookingStatusChange(status string) {
	c.statusChanges.WithLabelValues(status).Inc()
}

// RecordEventPublishFailure はイベント送信失敗を記録する。
func (c *Collector) RecordEventPublishFailure(eventType string) {
	c.publishFailures.WithLabelValues(eventType).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

func (NopCollector) RecordHTTPStatus(int) {}
func (NopCollector) RecordRequestLatency(time.Duration) {}
func (NopCollector) RecordAuthRejection(string) {}
func (NopCollector) RecordLogin(string) {}
func (NopCollector) RecordBookingCreated() {}
func (NopCollector) RecordBookingConflict() {}
func (NopCollector) RecordBookingStatusChange(string) {}
func (NopCollector) RecordEventPublishFailure(string) {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
