// Package metrics exports behaviour lifecycle counters to Prometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/rgraph/internal/behaviour"
)

const namespace = "rgraph"

// Metrics counts behaviour lifecycle events. It implements
// behaviour.Listener; pass it to runtime.WithBehaviourListener.
type Metrics struct {
	added    *prometheus.CounterVec
	removed  *prometheus.CounterVec
	failures *prometheus.CounterVec
	live     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		added: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "behaviours_added_total",
				Help:      "Behaviours created and connected.",
			},
			[]string{"behaviour"},
		),
		removed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "behaviours_removed_total",
				Help:      "Behaviours removed from their instance.",
			},
			[]string{"behaviour"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "behaviour_transition_failures_total",
				Help:      "Failed behaviour creations and lifecycle transitions.",
			},
			[]string{"behaviour", "kind"},
		),
		live: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "behaviours_live",
				Help:      "Behaviours currently held by managers.",
			},
		),
	}
	for _, c := range []prometheus.Collector{m.added, m.removed, m.failures, m.live} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// OnBehaviourEvent updates the counters for one lifecycle event.
func (m *Metrics) OnBehaviourEvent(ev behaviour.Event) {
	ty := ev.BehaviourType.String()
	switch ev.Kind {
	case behaviour.EventAdded:
		m.added.WithLabelValues(ty).Inc()
		m.live.Inc()
	case behaviour.EventRemoved:
		m.removed.WithLabelValues(ty).Inc()
		m.live.Dec()
	case behaviour.EventCreateFailed, behaviour.EventTransitionFailed:
		m.failures.WithLabelValues(ty, failureKind(ev.Err)).Inc()
	}
}

func failureKind(err error) string {
	var ce *behaviour.CreationError
	if errors.As(err, &ce) {
		return string(ce.Kind)
	}
	if kind := behaviour.TransitionKind(err); kind != "" {
		return string(kind)
	}
	return "UNKNOWN"
}
