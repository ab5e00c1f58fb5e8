// Package metrics collects and exposes Prometheus metrics for seat
// reservations and the expiry sweep.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by the reservation service and the
// sweeper.
type Recorder interface {
	RecordAcquire(result string)
	RecordRelease(released bool)
	RecordAssign(result string)
	RecordSweep(cleared, failed int, duration time.Duration)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	acquire       *prometheus.CounterVec
	release       *prometheus.CounterVec
	assign        *prometheus.CounterVec
	sweepCleared  prometheus.Counter
	sweepFailed   prometheus.Counter
	sweepDuration prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		acquire: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_hold_acquire_total",
			Help: "Temporary hold acquisitions by result code.",
		}, []string{"result"}),
		release: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_hold_release_total",
			Help: "Temporary hold releases; released=false counts no-op releases.",
		}, []string{"released"}),
		assign: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_seat_assign_total",
			Help: "Assigned seat changes by result code.",
		}, []string{"result"}),
		sweepCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "desk_sweep_cleared_total",
			Help: "Expired holds cleared by the sweep.",
		}),
		sweepFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "desk_sweep_failed_total",
			Help: "Expired holds the sweep failed to clear.",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "desk_sweep_duration_seconds",
			Help:    "Duration of one sweep run.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.acquire,
		c.release,
		c.assign,
		c.sweepCleared,
		c.sweepFailed,
		c.sweepDuration,
	)
	return c
}

// RecordAcquire counts one acquire attempt.  result is "ok" or an error code.
func (c *Collector) RecordAcquire(result string) {
	c.acquire.WithLabelValues(result).Inc()
}

func (c *Collector) RecordRelease(released bool) {
	if released {
		c.release.WithLabelValues("true").Inc()
		return
	}
	c.release.WithLabelValues("false").Inc()
}

func (c *Collector) RecordAssign(result string) {
	c.assign.WithLabelValues(result).Inc()
}

// RecordSweep records the outcome of one sweep run.
func (c *Collector) RecordSweep(cleared, failed int, duration time.Duration) {
	c.sweepCleared.Add(float64(cleared))
	c.sweepFailed.Add(float64(failed))
	c.sweepDuration.Observe(duration.Seconds())
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordAcquire(string)                {}
func (Nop) RecordRelease(bool)                  {}
func (Nop) RecordAssign(string)                 {}
func (Nop) RecordSweep(int, int, time.Duration) {}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
