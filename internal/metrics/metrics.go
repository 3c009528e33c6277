package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScoreRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "density_score_requests_total",
		Help: "Total number of scoring invocations by mode (single/bulk)",
	}, []string{"mode"})
	ScoreDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "density_score_duration_ms",
		Help:    "Scoring duration in milliseconds by mode",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"mode"})
	ScoreLevelTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "density_score_level_total",
		Help: "Emitted classifications by mode and level",
	}, []string{"mode", "level"})
	BulkPlaces = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "density_bulk_places",
		Help:    "Number of places per bulk scoring request",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})
	StalePlacesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "density_stale_places_total",
		Help: "Places with reports inside the stale window but none inside the recent window",
	})
	StoreErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "density_store_errors_total",
		Help: "Report store failures by operation",
	}, []string{"op"})
	ReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "density_reports_total",
		Help: "Accepted density reports by level",
	}, []string{"level"})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "density_redis_hits_total",
		Help: "Total score cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "density_redis_misses_total",
		Help: "Total score cache misses",
	})
	PlacesRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "density_places_requests_total",
		Help: "Total place catalog requests",
	})
	PlacesFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "density_places_fail_total",
		Help: "Total place catalog failures",
	})
	PlacesDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "density_places_duration_ms",
		Help:    "Place catalog call duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000},
	})
	EventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "density_events_published_total",
		Help: "Report events published by status",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(ScoreRequestsTotal)
	prometheus.MustRegister(ScoreDurationMs)
	prometheus.MustRegister(ScoreLevelTotal)
	prometheus.MustRegister(BulkPlaces)
	prometheus.MustRegister(StalePlacesTotal)
	prometheus.MustRegister(StoreErrorsTotal)
	prometheus.MustRegister(ReportsTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(PlacesRequestsTotal)
	prometheus.MustRegister(PlacesFailTotal)
	prometheus.MustRegister(PlacesDurationMs)
	prometheus.MustRegister(EventsPublishedTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
