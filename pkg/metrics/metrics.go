// Package metrics provides Prometheus metrics for gaze tracking sessions.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "readbuddy"

var (
	// pollsTotal counts gaze polls by outcome.
	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gaze_polls_total",
			Help:      "Total number of gaze polls",
		},
		[]string{"status"}, // status: success, error, discarded
	)

	// pollDuration is a histogram of poll round-trip time.
	pollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gaze_poll_duration_seconds",
			Help:      "Round-trip time of gaze polls in seconds",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// resolutionsTotal counts resolved samples by whether they hit a word.
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gaze_resolutions_total",
			Help:      "Total number of gaze samples resolved against the word layout",
		},
		[]string{"result"}, // result: word, none
	)

	// sessionsTotal counts session lifecycle transitions.
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of tracking session start and stop attempts",
		},
		[]string{"op", "status"}, // op: start, stop; status: success, error
	)

	// sessionActive is 1 while a tracking session is running.
	sessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "Whether a tracking session is currently active",
		},
	)

	// sessionDuration is a histogram of completed session lengths.
	sessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of completed tracking sessions in seconds",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	// layoutPublishes counts layout publications.
	layoutPublishes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_publishes_total",
			Help:      "Total number of word layouts published",
		},
	)
)

var allMetrics = []prometheus.Collector{
	pollsTotal,
	pollDuration,
	resolutionsTotal,
	sessionsTotal,
	sessionActive,
	sessionDuration,
	layoutPublishes,
}

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// Registry returns the process registry holding all readbuddy metrics plus
// the Go runtime and process collectors.
func Registry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		for _, c := range allMetrics {
			registry.MustRegister(c)
		}
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	return registry
}

// Status label values.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusDiscarded = "discarded"
)

// RecordPoll records one poll outcome and its duration.
func RecordPoll(status string, d time.Duration) {
	pollsTotal.WithLabelValues(status).Inc()
	pollDuration.Observe(d.Seconds())
}

// RecordResolution records whether a sample landed on a word.
func RecordResolution(hit bool) {
	if hit {
		resolutionsTotal.WithLabelValues("word").Inc()
		return
	}
	resolutionsTotal.WithLabelValues("none").Inc()
}

// RecordStart records a session start attempt.
func RecordStart(err error) {
	if err != nil {
		sessionsTotal.WithLabelValues("start", StatusError).Inc()
		return
	}
	sessionsTotal.WithLabelValues("start", StatusSuccess).Inc()
	sessionActive.Set(1)
}

// RecordStop records a completed stop. The session is over either way.
func RecordStop(err error, d time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	sessionsTotal.WithLabelValues("stop", status).Inc()
	sessionActive.Set(0)
	sessionDuration.Observe(d.Seconds())
}

// RecordLayoutPublish records a published word layout.
func RecordLayoutPublish() {
	layoutPublishes.Inc()
}
