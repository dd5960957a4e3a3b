// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlaybackTransitions tracks engine state machine transitions.
	PlaybackTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_playback_transitions_total",
		Help: "Playback engine state transitions",
	}, []string{"from", "to"})

	// PlaybackFailovers tracks automatic source failovers.
	PlaybackFailovers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_playback_failovers_total",
		Help: "Automatic failovers to the next candidate source",
	})

	// PlaybackExhausted tracks sessions that ran out of sources.
	PlaybackExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamgate_playback_exhausted_total",
		Help: "Sessions whose source list was fully exhausted",
	})

	// ProgressSaves tracks watch-progress checkpoints by result.
	ProgressSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamgate_progress_saves_total",
		Help: "Watch progress checkpoint attempts by result",
	}, []string{"result"})

	// CircuitBreakerState exposes the upstream breaker state (0 closed, 1 half-open, 2 open).
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamgate_circuit_breaker_state",
		Help: "Circuit breaker state per component",
	}, []string{"component"})
)

// IncPlaybackTransition records one state machine transition.
func IncPlaybackTransition(from, to string) {
	PlaybackTransitions.WithLabelValues(from, to).Inc()
}

// IncProgressSave records a checkpoint attempt.
func IncProgressSave(saved bool) {
	result := "skipped"
	if saved {
		result = "saved"
	}
	ProgressSaves.WithLabelValues(result).Inc()
}

// SetCircuitBreakerState publishes the breaker state for a component.
func SetCircuitBreakerState(component, state string) {
	var v float64
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(component).Set(v)
}
