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
// ハンドラー、認証ゲートウェイ、ワーカーから利用する。
type MetricsCollector interface {
	RecordAgentRequest(agentType string)
	RecordAgentLatency(agentType string, duration time.Duration)
	RecordHistoryWriteFailure()
	RecordUserUpsertFailure()
	RecordHTTPStatus(statusCode int)
	RecordUploadSize(bytes int64)
	RecordUploadsPurged(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	agentRequests    *prometheus.CounterVec
	agentLatency     *prometheus.HistogramVec
	historyWriteFail prometheus.Counter
	userUpsertFail   prometheus.Counter
	httpStatus       *prometheus.CounterVec
	uploadSize       prometheus.Histogram
	uploadsPurged    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		agentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exammine_agent_requests_total",
			Help: "エージェント種別ごとのリクエスト数",
		}, []string{"agent_type"}),
		agentLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exammine_agent_latency_seconds",
			Help:    "エージェント応答生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent_type"}),
		historyWriteFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exammine_history_write_failures_total",
			Help: "履歴書き込み失敗の合計数",
		}),
		userUpsertFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exammine_user_upsert_failures_total",
			Help: "ユーザープロフィール更新失敗の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exammine_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		uploadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exammine_upload_size_bytes",
			Help:    "アップロードされた検査ファイルのサイズ（バイト）",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		uploadsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exammine_uploads_purged_total",
			Help: "保持期間切れで削除されたアップロードの合計数",
		}),
	}

	reg.MustRegister(
		c.agentRequests,
		c.agentLatency,
		c.historyWriteFail,
		c.userUpsertFail,
		c.httpStatus,
		c.uploadSize,
		c.uploadsPurged,
	)

	return c
}

// RecordAgentRequest はエージェントへのリクエストを記録する。
func (c *Collector) RecordAgentRequest(agentType string) {
	c.agentRequests.WithLabelValues(agentType).Inc()
}

// RecordAgentLatency はエージェント応答生成のレイテンシを記録する。
func (c *Collector) RecordAgentLatency(agentType string, duration time.Duration) {
	c.agentLatency.WithLabelValues(agentType).Observe(duration.Seconds())
}

// RecordHistoryWriteFailure は履歴書き込み失敗を記録する。
func (c *Collector) RecordHistoryWriteFailure() {
	c.historyWriteFail.Inc()
}

// RecordUserUpsertFailure はユーザー更新失敗を記録する。
func (c *Collector) RecordUserUpsertFailure() {
	c.userUpsertFail.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordUploadSize はアップロードサイズを記録する。
func (c *Collector) RecordUploadSize(bytes int64) {
	c.uploadSize.Observe(float64(bytes))
}

// RecordUploadsPurged は削除したアップロード数を記録する。
func (c *Collector) RecordUploadsPurged(count int) {
	c.uploadsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordAgentRequest(string) {}
func (Nop) RecordAgentLatency(string, time.Duration) {}
func (Nop) RecordHistoryWriteFailure() {}
func (Nop) RecordUserUpsertFailure() {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordUploadSize(int64) {}
func (Nop) RecordUploadsPurged(int) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
