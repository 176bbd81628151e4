package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quiz_ws_connections",
		Help: "Current number of active websocket connections",
	})
	EventsRelayed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_events_relayed_total",
		Help: "Total number of relayed room events by kind",
	}, []string{"kind"})
	EventsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quiz_events_rejected_total",
		Help: "Total number of rejected inbound events by reason",
	}, []string{"reason"})
	SweepEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quiz_sweep_evictions_total",
		Help: "Total number of stale connections evicted by the sweeper",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(WsConnections, EventsRelayed, EventsRejected, SweepEvictions, HttpRequestsTotal, HttpRequestDuration)
}

// GinMiddleware 统计基础请求指标，供 Prometheus 拉取。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
