// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grooveray"

// Advance outcomes
const (
	OutcomeNoop      = "noop"
	OutcomePromoted  = "promoted"
	OutcomeRetired   = "retired"
	OutcomeExhausted = "exhausted"
	OutcomeRaceLost  = "race_lost"
	OutcomeError     = "error"
)

// Registry is the registry served by Handler
var Registry = prometheus.NewRegistry()

var (
	AdvancesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "advances_total",
			Help:      "Station advances by outcome",
		},
		[]string{"outcome"},
	)
	AdvanceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "advance_duration_seconds",
			Help:      "Time spent advancing one station",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	TracksPlayed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "tracks_played_total",
			Help:      "Tracks retired after playing to the end",
		},
	)

	SchedulerTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "ticks_total",
			Help:      "Scheduler ticks",
		},
	)
	SchedulerActiveStations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "active_stations",
			Help:      "Stations with a now playing record at the last tick",
		},
	)
	SchedulerSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "skipped_total",
			Help:      "Station advances skipped by the scheduler",
		},
		[]string{"reason"},
	)

	RealtimeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Open realtime connections",
		},
	)
	RealtimeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Events delivered to connection buffers",
		},
		[]string{"event"},
	)
	RealtimeDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_dropped_total",
			Help:      "Events dropped because a connection buffer was full",
		},
		[]string{"event"},
	)

	VotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "station",
			Name:      "votes_total",
			Help:      "Vote ledger operations by result",
		},
		[]string{"result"},
	)
	EnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "station",
			Name:      "enqueued_total",
			Help:      "Songs added to station queues",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		AdvancesTotal,
		AdvanceDuration,
		TracksPlayed,
		SchedulerTicks,
		SchedulerActiveStations,
		SchedulerSkipped,
		RealtimeConnections,
		RealtimeEvents,
		RealtimeDropped,
		VotesTotal,
		EnqueuedTotal,
		HTTPRequests,
		HTTPDuration,
	)
}

// Handler serves the registry in the prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
