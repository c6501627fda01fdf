package http

//
// Metrics definitions
//

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xcro3dile/permlab/internal/domain/usecases"
)

// metricsSummaryObjectives returns the summary objectives for promauto.NewSummary.
func metricsSummaryObjectives() map[float64]float64 {
	return map[float64]float64{
		0.5:  0.010,
		0.9:  0.010,
		0.99: 0.001,
	}
}

var (
	// metricRequestsCount counts the API requests we served.
	metricRequestsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "permlab_requests_count",
		Help: "Total number of processed API requests",
	}, []string{"route", "code"})

	// metricRequestsInflight gauges the API requests currently inflight.
	metricRequestsInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "permlab_requests_inflight_gauge",
		Help: "The number of API requests currently inflight",
	})

	// metricAnalysisDurationSeconds summarizes the round trip to the analysis service.
	metricAnalysisDurationSeconds = promauto.NewSummary(prometheus.SummaryOpts{
		Name:       "permlab_analysis_duration_seconds",
		Help:       "Summarizes the time to complete a submission (in seconds)",
		Objectives: metricsSummaryObjectives(),
	})

	// metricSessionTransitions counts session state changes by target state.
	metricSessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "permlab_session_transitions_count",
		Help: "Total number of session state transitions",
	}, []string{"from", "to"})
)

// ObserveTransition records a session state change. It is meant to be
// installed with usecases.WithTransitionHook.
func ObserveTransition(from, to usecases.State) {
	metricSessionTransitions.WithLabelValues(from.String(), to.String()).Inc()
}
