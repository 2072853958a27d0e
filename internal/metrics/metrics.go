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
// サービス層やワーカーから利用する。
type MetricsCollector interface {
	RecordLessonCompleted(lessonID string)
	RecordLessonReplayed(lessonID string)
	RecordStreakUpdated()
	RecordStreakReset()
	RecordPracticeMinutes(minutes int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	lessonCompleted prometheus.Counter
	lessonReplayed  prometheus.Counter
	streakUpdated   prometheus.Counter
	streakReset     prometheus.Counter
	practiceMinutes prometheus.Counter
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		lessonCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signage_lesson_completed_total",
			Help: "初回完了として記録されたレッスンの合計数",
		}),
		lessonReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signage_lesson_replayed_total",
			Help: "既に完了済みのレッスン完了報告の合計数",
		}),
		streakUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signage_streak_updated_total",
			Help: "継続日数の更新回数",
		}),
		streakReset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signage_streak_reset_total",
			Help: "継続日数が1にリセットされた回数",
		}),
		practiceMinutes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signage_practice_minutes_total",
			Help: "記録された練習時間の合計（分）",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signage_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signage_request_latency_seconds",
			Help:    "HTTPリクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.lessonCompleted,
		c.lessonReplayed,
		c.streakUpdated,
		c.streakReset,
		c.practiceMinutes,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLessonCompleted は初回のレッスン完了を記録する。
func (c *Collector) RecordLessonCompleted(lessonID string) {
	c.lessonCompleted.Inc()
}

// RecordLessonReplayed は完了済みレッスンへの再報告を記録する。
func (c *Collector) RecordLessonReplayed(lessonID string) {
	c.lessonReplayed.Inc()
}

// RecordStreakUpdated は継続日数の更新を記録する。
func (c *Collector) RecordStreakUpdated() {
	c.streakUpdated.Inc()
}

// RecordStreakReset は継続日数のリセットを記録する。
func (c *Collector) RecordStreakReset() {
	c.streakReset.Inc()
}

// RecordPracticeMinutes は記録された練習時間（分）を加算する。
func (c *Collector) RecordPracticeMinutes(minutes int) {
	c.practiceMinutes.Add(float64(minutes))
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
