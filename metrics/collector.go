// Package metrics exports cache events to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krisalay/faculty-cache/types"
)

// Collector implements types.Metrics with Prometheus counters registered
// on a private registry, so several collectors can coexist in one process.
type Collector struct {
	registry *prometheus.Registry

	Hits        *prometheus.CounterVec
	Misses      prometheus.Counter
	Promotions  prometheus.Counter
	Evictions   prometheus.Counter
	Expirations prometheus.Counter
	Refreshes   prometheus.Counter
	FetchErrors prometheus.Counter
	StoreErrors prometheus.Counter
}

var _ types.Metrics = (*Collector)(nil)

func NewCollector(namespace string) *Collector {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "faculty_cache",
			Name:      name,
			Help:      help,
		})
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		Hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "faculty_cache",
				Name:      "hits_total",
				Help:      "Cache lookups served, by tier.",
			},
			[]string{"tier"},
		),
		Misses:      counter("misses_total", "Lookups neither tier could serve."),
		Promotions:  counter("promotions_total", "Persistent hits copied into memory."),
		Evictions:   counter("evictions_total", "Identities dropped from the memory tier."),
		Expirations: counter("expirations_total", "Cached entries found stale."),
		Refreshes:   counter("refreshes_total", "Remote fetches issued."),
		FetchErrors: counter("fetch_errors_total", "Remote fetches that failed."),
		StoreErrors: counter("store_errors_total", "Session store read, write or decode failures."),
	}
	c.registry.MustRegister(
		c.Hits,
		c.Misses,
		c.Promotions,
		c.Evictions,
		c.Expirations,
		c.Refreshes,
		c.FetchErrors,
		c.StoreErrors,
	)
	return c
}

// Registry is what a /metrics handler should gather from.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Hit(tier string) { c.Hits.WithLabelValues(tier).Inc() }
func (c *Collector) Miss()           { c.Misses.Inc() }
func (c *Collector) Promote()        { c.Promotions.Inc() }
func (c *Collector) Eviction()       { c.Evictions.Inc() }
func (c *Collector) Expire()         { c.Expirations.Inc() }
func (c *Collector) Refresh()        { c.Refreshes.Inc() }
func (c *Collector) FetchError()     { c.FetchErrors.Inc() }
func (c *Collector) StoreError()     { c.StoreErrors.Inc() }
