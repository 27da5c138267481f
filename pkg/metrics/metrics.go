package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Logger state metrics
	LoggersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "deckhand_loggers_total",
			Help: "Number of known loggers by state (off, running, dead, failed)",
		},
		[]string{"state"},
	)

	LoggerRestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckhand_logger_restarts_total",
			Help: "Total automatic restarts per logger",
		},
		[]string{"logger"},
	)

	LoggerFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deckhand_logger_failures_total",
			Help: "Total loggers declared permanently failed",
		},
	)

	LoggerStartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deckhand_logger_starts_total",
			Help: "Total pipeline launches, including restarts",
		},
	)

	// Reconciliation metrics
	ReconcileCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deckhand_reconcile_cycles_total",
			Help: "Total reconciliation cycles completed",
		},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deckhand_reconcile_duration_seconds",
			Help:    "Reconciliation cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Command surface metrics
	ModeSwitchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deckhand_mode_switches_total",
			Help: "Total mode switches applied",
		},
	)

	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deckhand_commands_total",
			Help: "Total commands processed by verb and status",
		},
		[]string{"command", "status"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(LoggersTotal)
	prometheus.MustRegister(LoggerRestartsTotal)
	prometheus.MustRegister(LoggerFailuresTotal)
	prometheus.MustRegister(LoggerStartsTotal)
	prometheus.MustRegister(ReconcileCyclesTotal)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(ModeSwitchesTotal)
	prometheus.MustRegister(CommandsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
