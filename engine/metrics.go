package engine

import "github.com/prometheus/client_golang/prometheus"

// newMetrics builds a fresh, unregistered set of engine counters and a
// net-profit histogram. Callers
// that want them scraped register the returned Metrics' fields with their
// own prometheus.Registerer; Engine itself never touches the default
// registry, so constructing more than one Engine in a test never panics on
// duplicate registration.
func newMetrics() *Metrics {
	return &Metrics{
		CyclesScreened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbengine_cycles_screened_total",
			Help: "Cycles passed through the viability screen, per tick.",
		}),
		CyclesSurvived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arbengine_cycles_survived_total",
			Help: "Cycles that produced a solution clearing the net profit floor.",
		}),
		NetProfitWei: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arbengine_solution_net_profit_wei",
			Help:    "Net profit, in wei of the profit token, of surviving solutions.",
			Buckets: prometheus.ExponentialBuckets(1e16, 2, 12),
		}),
	}
}

// Collectors returns every metric as a prometheus.Collector, for callers
// that want to register the whole set in one MustRegister call.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.CyclesScreened, m.CyclesSurvived, m.NetProfitWei}
}
