package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "attendance_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	attendanceEvents *prometheus.CounterVec

	timeFormatTotal *prometheus.CounterVec

	statsCacheTotal *prometheus.CounterVec

	statsRefreshTotal   *prometheus.CounterVec
	statsRefreshLatency prometheus.Histogram

	exportTotal *prometheus.CounterVec
)

// Init registers application metrics with the default registry. It is safe
// to call more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
		attendanceEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_total",
				Help: "Total check-in/check-out operations by type and result",
			},
			[]string{"type", "result"},
		)
		timeFormatTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "time_format_total",
				Help: "Stored times rendered for display by outcome (formatted, placeholder, raw)",
			},
			[]string{"outcome"},
		)
		statsCacheTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stats_cache_total",
				Help: "Stats cache lookups by outcome",
			},
			[]string{"outcome"},
		)
		statsRefreshTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stats_refresh_total",
				Help: "Scheduled stats refresh runs by result",
			},
			[]string{"result"},
		)
		statsRefreshLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "stats_refresh_latency_seconds",
				Help:    "Scheduled stats refresh latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Attendance history exports by format and result",
			},
			[]string{"format", "result"},
		)
		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			attendanceEvents,
			timeFormatTotal,
			statsCacheTotal,
			statsRefreshTotal,
			statsRefreshLatency,
			exportTotal,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one served request.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// IncAttendanceEvent counts a check-in or check-out attempt.
func IncAttendanceEvent(eventType, result string) {
	if result == "" {
		result = ResultSuccess
	}
	if attendanceEvents != nil {
		attendanceEvents.WithLabelValues(eventType, result).Inc()
	}
}

// IncTimeFormat counts one display rendering of a stored time.
func IncTimeFormat(outcome string) {
	if timeFormatTotal != nil {
		timeFormatTotal.WithLabelValues(outcome).Inc()
	}
}

func IncStatsCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	if statsCacheTotal != nil {
		statsCacheTotal.WithLabelValues(outcome).Inc()
	}
}

func ObserveStatsRefresh(result string, duration time.Duration) {
	if statsRefreshTotal != nil {
		statsRefreshTotal.WithLabelValues(result).Inc()
	}
	if statsRefreshLatency != nil {
		statsRefreshLatency.Observe(duration.Seconds())
	}
}

func IncExport(format, result string) {
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}
