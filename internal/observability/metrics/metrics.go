// Package metrics exposes Prometheus instrumentation for the
// smarthouse server.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "smarthouse_"

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	measurementsInserted prometheus.Counter
	measurementsDeleted  prometheus.Counter
	actuatorUpdates      *prometheus.CounterVec

	websocketClients prometheus.Gauge
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status",
			},
			[]string{"method", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_latency_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)

		measurementsInserted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "measurements_inserted_total",
				Help: "Total sensor measurements stored",
			},
		)
		measurementsDeleted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "measurements_deleted_total",
				Help: "Total oldest-reading deletions",
			},
		)
		actuatorUpdates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "actuator_updates_total",
				Help: "Total actuator state updates by result",
			},
			[]string{"result"},
		)

		websocketClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "websocket_clients",
				Help: "Currently connected WebSocket clients",
			},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			measurementsInserted,
			measurementsDeleted,
			actuatorUpdates,
			websocketClients,
		)
	})
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method string, status int, duration time.Duration) {
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method).Observe(duration.Seconds())
	}
}

// IncMeasurementInserted increments the stored-measurement counter.
func IncMeasurementInserted() {
	if measurementsInserted != nil {
		measurementsInserted.Inc()
	}
}

// IncMeasurementDeleted increments the deletion counter.
func IncMeasurementDeleted() {
	if measurementsDeleted != nil {
		measurementsDeleted.Inc()
	}
}

// IncActuatorUpdate increments the actuator update counter.
func IncActuatorUpdate(result string) {
	if result == "" {
		result = ResultSuccess
	}
	if actuatorUpdates != nil {
		actuatorUpdates.WithLabelValues(result).Inc()
	}
}

// SetWebSocketClients sets the connected client gauge.
func SetWebSocketClients(n int) {
	if websocketClients != nil {
		websocketClients.Set(float64(n))
	}
}

// Result labels for IncActuatorUpdate.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)
