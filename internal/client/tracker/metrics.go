package tracker

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics 埋点队列指标
type metrics struct {
	enqueued      prometheus.Counter
	delivered     prometheus.Counter
	flushFailures prometheus.Counter
	dropped       prometheus.Counter
	queueLength   prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "werss", Subsystem: "tracker", Name: "events_enqueued_total",
			Help: "Events accepted into the tracker queue.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "werss", Subsystem: "tracker", Name: "events_delivered_total",
			Help: "Events handed to the ingestion endpoint or beacon transport.",
		}),
		flushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "werss", Subsystem: "tracker", Name: "flush_failures_total",
			Help: "Flushes whose batch delivery failed and was requeued.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "werss", Subsystem: "tracker", Name: "events_dropped_total",
			Help: "Events dropped by the queue cap after a failed flush.",
		}),
		queueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "werss", Subsystem: "tracker", Name: "queue_length",
			Help: "Current number of queued events.",
		}),
	}
	if reg == nil {
		return m
	}
	m.enqueued = register(reg, m.enqueued)
	m.delivered = register(reg, m.delivered)
	m.flushFailures = register(reg, m.flushFailures)
	m.dropped = register(reg, m.dropped)
	m.queueLength = register(reg, m.queueLength)
	return m
}

// register 注册收集器，已注册时复用已有实例
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
