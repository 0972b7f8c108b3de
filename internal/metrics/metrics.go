// Package metrics holds the Prometheus collectors for the player.
// Labels are limited to small enums (kinds, states, event types).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsRoutedTotal counts events delivered to the control loop, by type.
	EventsRoutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_events_routed_total",
		Help: "Backend events delivered to the control loop, by event type.",
	}, []string{"type"})

	// EventsStaleTotal counts events dropped because their backend was replaced.
	EventsStaleTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_events_stale_total",
		Help: "Backend events discarded because the emitting instance is no longer active.",
	})

	// BackendCreatedTotal counts backend instances, by kind.
	BackendCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_backend_created_total",
		Help: "Backend instances created, by kind.",
	}, []string{"kind"})

	// BackendFallbackTotal counts Primary to Fallback retries.
	BackendFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_backend_fallback_total",
		Help: "Primary backend failures recovered by switching to the fallback backend.",
	})

	// StateTransitionsTotal counts state machine entries, by target state.
	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_state_transitions_total",
		Help: "Playback state machine transitions, by state entered.",
	}, []string{"state"})

	// SessionOutcomeTotal counts terminal outcomes.
	SessionOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_session_outcome_total",
		Help: "Terminal playback outcomes, by outcome.",
	}, []string{"outcome"})

	// PlaybackState exposes the current state as its enum value.
	PlaybackState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "player_playback_state",
		Help: "Current playback state (enum value).",
	})
)

// IncEventRouted records a delivered event.
func IncEventRouted(eventType string) {
	EventsRoutedTotal.WithLabelValues(eventType).Inc()
}

// IncEventStale records a discarded event.
func IncEventStale() {
	EventsStaleTotal.Inc()
}

// IncBackendCreated records a new backend instance.
func IncBackendCreated(kind string) {
	BackendCreatedTotal.WithLabelValues(kind).Inc()
}

// IncFallback records a fallback retry.
func IncFallback() {
	BackendFallbackTotal.Inc()
}

// ObserveState records entering state (name) with enum value v.
func ObserveState(name string, v int) {
	StateTransitionsTotal.WithLabelValues(name).Inc()
	PlaybackState.Set(float64(v))
}

// IncOutcome records a terminal outcome.
func IncOutcome(outcome string) {
	SessionOutcomeTotal.WithLabelValues(outcome).Inc()
}
