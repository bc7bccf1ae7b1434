// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// ミドルウェア、コンテンツリゾルバ、購読・通知サービスから利用する。
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpLatency      prometheus.Histogram
	rateLimited      *prometheus.CounterVec
	contentFallback  *prometheus.CounterVec
	notifyRecipients *prometheus.CounterVec
	notifyFailures   prometheus.Counter
	subscriberEvents *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_requests_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_rate_limited_total",
			Help: "レート制限で拒否したリクエスト数",
		}, []string{"scope"}),
		contentFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_content_fallback_total",
			Help: "リモートCMSの失敗によりローカルコンテンツへ切り替えた回数",
		}, []string{"kind"}),
		notifyRecipients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_notification_recipients_total",
			Help: "新着記事通知の宛先数の合計",
		}, []string{"mode"}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_notification_failures_total",
			Help: "新着記事通知の送信失敗数",
		}),
		subscriberEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_subscriber_events_total",
			Help: "購読の登録・再開・解除の件数",
		}, []string{"event"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.rateLimited,
		c.contentFallback,
		c.notifyRecipients,
		c.notifyFailures,
		c.subscriberEvents,
	)

	return c
}

// RecordHTTPRequest はレスポンスのステータスコードと処理時間を記録する。
func (c *Collector) RecordHTTPRequest(statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited(scope string) {
	c.rateLimited.WithLabelValues(scope).Inc()
}

// RecordContentFallback はローカルコンテンツへのフォールバックを記録する。
func (c *Collector) RecordContentFallback(kind string) {
	c.contentFallback.WithLabelValues(kind).Inc()
}

// RecordNotificationSent は通知の宛先数を記録する。modeは "live" または "dev"。
func (c *Collector) RecordNotificationSent(mode string, recipients int) {
	c.notifyRecipients.WithLabelValues(mode).Add(float64(recipients))
}

// RecordNotificationFailure は通知の送信失敗を記録する。
func (c *Collector) RecordNotificationFailure() {
	c.notifyFailures.Inc()
}

// RecordSubscriberEvent は購読イベントを記録する。
func (c *Collector) RecordSubscriberEvent(event string) {
	c.subscriberEvents.WithLabelValues(event).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
