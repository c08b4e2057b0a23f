package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	AuthFlowsStartedTotal   prometheus.Counter
	ExchangeSuccessTotal    prometheus.Counter
	ExchangeFailureTotal    prometheus.Counter
	CallbacksRejectedTotal  prometheus.Counter
	ResultsDeliveredTotal   prometheus.Counter
	PendingResultsGauge     prometheus.Gauge
	TokenRefreshTotal       prometheus.Counter
	TokenRefreshFailedTotal prometheus.Counter
)

// InitCustomMetrics initializes and registers the bridge metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	AuthFlowsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authbridge_flows_started_total",
		Help: "Total number of authorization flows initiated.",
	})
	ExchangeSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authbridge_exchange_success_total",
		Help: "Total number of successful code-for-token exchanges.",
	})
	ExchangeFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authbridge_exchange_failure_total",
		Help: "Total number of failed code-for-token exchanges.",
	})
	CallbacksRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authbridge_callbacks_rejected_total",
		Help: "Total number of callbacks rejected before any exchange was attempted.",
	})
	ResultsDeliveredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authbridge_results_delivered_total",
		Help: "Total number of authorization results consumed by polling clients.",
	})
	PendingResultsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authbridge_pending_results_gauge",
		Help: "Current number of results waiting in the correlation store.",
	})
	TokenRefreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authbridge_token_refresh_total",
		Help: "Total number of successful token refreshes.",
	})
	TokenRefreshFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authbridge_token_refresh_failed_total",
		Help: "Total number of failed token refreshes.",
	})

	if reg != nil {
		for name, c := range map[string]prometheus.Collector{
			"AuthFlowsStartedTotal":   AuthFlowsStartedTotal,
			"ExchangeSuccessTotal":    ExchangeSuccessTotal,
			"ExchangeFailureTotal":    ExchangeFailureTotal,
			"CallbacksRejectedTotal":  CallbacksRejectedTotal,
			"ResultsDeliveredTotal":   ResultsDeliveredTotal,
			"PendingResultsGauge":     PendingResultsGauge,
			"TokenRefreshTotal":       TokenRefreshTotal,
			"TokenRefreshFailedTotal": TokenRefreshFailedTotal,
		} {
			if err := reg.Register(c); err != nil {
				log.Warn().Err(err).Str("metric", name).Msg("Failed to register metric")
			}
		}
	}
}
