package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Subscriber drop reasons used as the "reason" label
const (
	ReasonWrite  = "write"
	ReasonQueue  = "queue"
	ReasonHangup = "hangup"
)

var (
	// Source metrics
	SourceLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "irrelay_source_lines_total",
			Help: "Total number of lines read from the input socket",
		},
	)

	SourceParseErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "irrelay_source_parse_errors_total",
			Help: "Total number of input lines dropped as malformed",
		},
	)

	// Classifier metrics
	ClassifiedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrelay_classified_events_total",
			Help: "Total number of emitted events by classification kind",
		},
		[]string{"kind"},
	)

	OrphanRepeatsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "irrelay_orphan_repeats_total",
			Help: "Total number of repeat reports dropped with no pending press",
		},
	)

	PendingDiscardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "irrelay_pending_discarded_total",
			Help: "Total number of pending presses discarded at shutdown",
		},
	)

	PressDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "irrelay_press_duration_seconds",
			Help:    "Time from the original press to its classification",
			Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 2, 5},
		},
		[]string{"kind"},
	)

	// Broadcast metrics
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "irrelay_subscribers",
			Help: "Number of currently registered output clients",
		},
	)

	BroadcastEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "irrelay_broadcast_events_total",
			Help: "Total number of events fanned out to subscribers",
		},
	)

	SubscriberDropsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "irrelay_subscriber_drops_total",
			Help: "Total number of subscribers deregistered after a failure",
		},
		[]string{"reason"},
	)

	// Server metrics
	ConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "irrelay_connections_total",
			Help: "Total number of accepted output socket connections",
		},
	)

	ClientWriteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "irrelay_client_write_duration_seconds",
			Help:    "Time taken to write one line to an output client",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(SourceLinesTotal)
	prometheus.MustRegister(SourceParseErrorsTotal)
	prometheus.MustRegister(ClassifiedTotal)
	prometheus.MustRegister(OrphanRepeatsTotal)
	prometheus.MustRegister(PendingDiscardedTotal)
	prometheus.MustRegister(PressDuration)
	prometheus.MustRegister(Subscribers)
	prometheus.MustRegister(BroadcastEventsTotal)
	prometheus.MustRegister(SubscriberDropsTotal)
	prometheus.MustRegister(ConnectionsTotal)
	prometheus.MustRegister(ClientWriteDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in seconds
func (t *Timer) ObserveDuration(o prometheus.Observer) {
	o.Observe(t.Duration().Seconds())
}
