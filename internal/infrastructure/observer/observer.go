// Package observer reports engine divergences to the logs and to
// prometheus.
package observer

import (
	"github.com/muun/cosigner/internal/core/domain"
	"github.com/muun/cosigner/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const namespace = "cosigner"

type observer struct {
	divergences *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewObserver returns a ports.Observer whose counters are registered on reg.
// A nil reg disables metrics.
func NewObserver(reg prometheus.Registerer) (ports.Observer, error) {
	o := &observer{
		divergences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shadow",
			Name:      "divergences_total",
			Help:      "Results of the reference engine that differ from the primary one.",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shadow",
			Name:      "errors_total",
			Help:      "Failures of the reference engine.",
		}, []string{"operation"}),
	}
	if reg == nil {
		return o, nil
	}
	for _, c := range []prometheus.Collector{o.divergences, o.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *observer) ReportDivergence(d domain.Divergence) {
	o.divergences.WithLabelValues(d.Operation).Inc()
	log.WithFields(log.Fields{
		"operation": d.Operation,
		"expected":  d.Expected,
		"actual":    d.Actual,
	}).Warn("shadow engine divergence")
}

func (o *observer) ReportError(operation string, err error) {
	o.errors.WithLabelValues(operation).Inc()
	log.WithField("operation", operation).WithError(err).
		Warn("reference engine failure")
}
