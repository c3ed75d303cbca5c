package clmm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the synchronization and discovery metrics of one process.
type Metrics struct {
	syncTotal         *prometheus.CounterVec
	syncDuration      *prometheus.HistogramVec
	windowSize        *prometheus.GaugeVec
	discoveryFailures *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		syncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swapioclmm_sync_total",
			Help: "Synchronization passes by result.",
		}, []string{"result"}),
		syncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "swapioclmm_sync_duration_seconds",
			Help:    "Duration of one synchronization pass.",
			Buckets: prometheus.DefBuckets,
		}, []string{}),
		windowSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "swapioclmm_window_size",
			Help: "Discovered tick arrays per direction.",
		}, []string{"direction"}),
		discoveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "swapioclmm_discovery_failures_total",
			Help: "Tick array discovery failures per direction.",
		}, []string{"direction"}),
	}
}
