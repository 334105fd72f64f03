package engine

import "github.com/prometheus/client_golang/prometheus"

// metrics are the engine's prometheus collectors. They are registered
// with prometheus.DefaultRegisterer once per Engine unless
// Config.MetricsEnabled is false, the same opt-out the rest of this
// codebase's ambient stack respects.
type metrics struct {
	ticksTotal        prometheus.Counter
	tickDuration      prometheus.Histogram
	admittedCandidate prometheus.Counter
	deferredCandidate prometheus.Counter
	mergeConflicts    prometheus.Counter
	channelErrors     prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warpengine_ticks_total",
			Help: "Total number of ticks committed.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warpengine_tick_duration_seconds",
			Help:    "Wall-clock duration of a committed tick.",
			Buckets: prometheus.DefBuckets,
		}),
		admittedCandidate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warpengine_admitted_candidates_total",
			Help: "Total candidate rewrites admitted by the scheduler across all ticks.",
		}),
		deferredCandidate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warpengine_deferred_candidates_total",
			Help: "Total candidate rewrites deferred by the scheduler across all ticks.",
		}),
		mergeConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warpengine_merge_conflicts_total",
			Help: "Total MergeConflict aborts.",
		}),
		channelErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warpengine_channel_errors_total",
			Help: "Total per-channel finalize errors (e.g. StrictSingleConflict).",
		}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.ticksTotal, m.tickDuration, m.admittedCandidate, m.deferredCandidate, m.mergeConflicts, m.channelErrors)
}
