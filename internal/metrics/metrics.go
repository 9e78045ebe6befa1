// Package metrics exposes Prometheus counters for game sessions and the heartbeat.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/park285/cheese-gamecore/internal/pvpchess"
)

// Recorder owns a private registry. A nil *Recorder is valid and records nothing.
type Recorder struct {
	reg *prometheus.Registry

	moves        prometheus.Counter
	rejections   *prometheus.CounterVec
	terminations *prometheus.CounterVec
	finalized    *prometheus.CounterVec
	sweeps       *prometheus.CounterVec
	sweepLatency prometheus.Histogram
	httpRequests *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		reg: reg,
		moves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gamecore", Name: "moves_total",
			Help: "Accepted moves.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamecore", Name: "rejections_total",
			Help: "Rejected session operations by operation and error code.",
		}, []string{"op", "code"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamecore", Name: "terminations_total",
			Help: "Finished games by cause.",
		}, []string{"cause"}),
		finalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamecore", Name: "ratings_finalized_total",
			Help: "Rating finalization calls by result.",
		}, []string{"result"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamecore", Name: "heartbeat_sweeps_total",
			Help: "Heartbeat sweeps by result.",
		}, []string{"result"}),
		sweepLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gamecore", Name: "heartbeat_sweep_seconds",
			Help:    "Heartbeat sweep duration.",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamecore", Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(r.moves, r.rejections, r.terminations, r.finalized, r.sweeps, r.sweepLatency, r.httpRequests)
	reg.MustRegister(collectors.NewGoCollector())
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Recorder) MoveAccepted() {
	if r == nil {
		return
	}
	r.moves.Inc()
}

func (r *Recorder) OperationRejected(op, code string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(op, code).Inc()
}

func (r *Recorder) GameFinished(cause pvpchess.Cause) {
	if r == nil {
		return
	}
	r.terminations.WithLabelValues(causeLabel(cause)).Inc()
}

func (r *Recorder) RatingsFinalized(applied bool) {
	if r == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "already_applied"
	}
	r.finalized.WithLabelValues(result).Inc()
}

// RecordSweep tracks one heartbeat pass.
func (r *Recorder) RecordSweep(duration time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.sweeps.WithLabelValues(result).Inc()
	r.sweepLatency.Observe(duration.Seconds())
}

func (r *Recorder) RecordHTTPRequest(route string, status int) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, statusClass(status)).Inc()
}

// causeLabel folds timeout_white and timeout_black into one label value.
func causeLabel(c pvpchess.Cause) string {
	switch c {
	case pvpchess.TimeoutCause(pvpchess.White), pvpchess.TimeoutCause(pvpchess.Black):
		return "timeout"
	default:
		return string(c)
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
