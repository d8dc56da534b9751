package termit

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics counts workspace metadata cache activity.
type cacheMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	loads         prometheus.Counter
	invalidations prometheus.Counter
	size          prometheus.Gauge
}

func newCacheMetrics() *cacheMetrics {
	return &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termit",
			Subsystem: "workspace_metadata",
			Name:      "hits_total",
			Help:      "Total number of workspace metadata cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termit",
			Subsystem: "workspace_metadata",
			Name:      "misses_total",
			Help:      "Total number of workspace metadata cache misses",
		}),
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termit",
			Subsystem: "workspace_metadata",
			Name:      "loads_total",
			Help:      "Total number of explicit workspace loads",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "termit",
			Subsystem: "workspace_metadata",
			Name:      "invalidations_total",
			Help:      "Total number of full cache invalidations",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "termit",
			Subsystem: "workspace_metadata",
			Name:      "size",
			Help:      "Current number of cached workspaces",
		}),
	}
}

// register adds the collectors to reg. Collectors registered earlier by
// another provider are reused.
func (m *cacheMetrics) register(reg prometheus.Registerer) error {
	if reg == nil {
		return nil
	}
	for _, c := range []*prometheus.Counter{&m.hits, &m.misses, &m.loads, &m.invalidations} {
		if err := reg.Register(*c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
			*c = are.ExistingCollector.(prometheus.Counter)
		}
	}
	if err := reg.Register(m.size); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
		m.size = are.ExistingCollector.(prometheus.Gauge)
	}
	return nil
}
