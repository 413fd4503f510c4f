// ABOUTME: Prometheus counters implementing the mixer.Instrumentation contract
// ABOUTME: Exposed over HTTP via promhttp for scraping
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements mixer.Instrumentation with Prometheus counters. A
// nil *Recorder is not valid; use New.
type Recorder struct {
	ticks         prometheus.Counter
	blocksEmitted prometheus.Counter
	staleDrops    prometheus.Counter
	pastDrops     prometheus.Counter
	gapDrops      prometheus.Counter
	lateResets    prometheus.Counter
	cursorDrifts  prometheus.Counter
}

// New creates a Recorder and registers its counters against reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcore_ticks_total",
			Help: "Total number of assembleOne ticks run.",
		}),
		blocksEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcore_blocks_emitted_total",
			Help: "Total number of output blocks handed to the sink.",
		}),
		staleDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcore_stale_drops_total",
			Help: "Total input buffers dropped for lagging behind the wall clock.",
		}),
		pastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcore_past_drops_total",
			Help: "Total input buffers dropped for ending before the output clock.",
		}),
		gapDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcore_gap_drops_total",
			Help: "Total input buffers dropped ahead of a discontinuity.",
		}),
		lateResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcore_late_resets_total",
			Help: "Total times the output clock was reset for falling behind the wall clock.",
		}),
		cursorDrifts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mixcore_cursor_drifts_total",
			Help: "Total times a linear input's byte cursor needed correction.",
		}),
	}

	reg.MustRegister(
		r.ticks,
		r.blocksEmitted,
		r.staleDrops,
		r.pastDrops,
		r.gapDrops,
		r.lateResets,
		r.cursorDrifts,
	)
	return r
}

func (r *Recorder) Tick()         { r.ticks.Inc() }
func (r *Recorder) BlockEmitted() { r.blocksEmitted.Inc() }
func (r *Recorder) StaleDrop()    { r.staleDrops.Inc() }
func (r *Recorder) PastDrop()     { r.pastDrops.Inc() }
func (r *Recorder) GapDrop()      { r.gapDrops.Inc() }
func (r *Recorder) LateReset()    { r.lateResets.Inc() }
func (r *Recorder) CursorDrift()  { r.cursorDrifts.Inc() }

// Handler returns an http.Handler serving the given registry's metrics
// in the Prometheus exposition format, for mounting at /metrics.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
