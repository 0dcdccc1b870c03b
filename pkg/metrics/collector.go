// Package metrics exports engine activity as Prometheus metrics.
//
// A Collector implements reactive.Observer; attach it with
// reactive.WithObserver and register it once per process.
//
//	c, err := metrics.NewCollector(prometheus.DefaultRegisterer, "app")
//	rt := reactive.NewRuntime(reactive.WithObserver(c))
package metrics

import (
	"strconv"

	reactive "github.com/goliatone/go-reactive"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "reactive"

// Collector counts container writes, pointer notifications and
// resubscriptions.
type Collector struct {
	// StateWritesTotal counts Set calls that reached listeners.
	StateWritesTotal prometheus.Counter

	// NotificationsTotal counts pointer notifications.
	// Labels: kind (regular, zipped, mapped)
	NotificationsTotal *prometheus.CounterVec

	// ResubscriptionsTotal counts resubscriptions that moved at least one
	// listener.
	// Labels: depth (first depth re-walked)
	ResubscriptionsTotal *prometheus.CounterVec
}

var _ reactive.Observer = (*Collector)(nil)

// NewCollector builds the collector and registers its metrics on reg. A nil
// reg leaves the metrics unregistered, which suits tests.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		StateWritesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_writes_total",
			Help:      "Total number of container writes.",
		}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pointer_notifications_total",
			Help:      "Total number of pointer notifications by pointer kind.",
		}, []string{"kind"}),
		ResubscriptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resubscriptions_total",
			Help:      "Total number of path resubscriptions by starting depth.",
		}, []string{"depth"}),
	}
	if reg == nil {
		return c, nil
	}
	for _, collector := range []prometheus.Collector{c.StateWritesTotal, c.NotificationsTotal, c.ResubscriptionsTotal} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// StateWritten implements reactive.Observer.
func (c *Collector) StateWritten(reactive.StateID, any) {
	c.StateWritesTotal.Inc()
}

// PointerNotified implements reactive.Observer.
func (c *Collector) PointerNotified(_ reactive.PointerID, kind reactive.Kind) {
	c.NotificationsTotal.WithLabelValues(kind.String()).Inc()
}

// Resubscribed implements reactive.Observer.
func (c *Collector) Resubscribed(_ reactive.PointerID, from int) {
	c.ResubscriptionsTotal.WithLabelValues(strconv.Itoa(from)).Inc()
}
