package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the checkout-path counters.
type Metrics struct {
	registry *prometheus.Registry

	OrdersCreated       prometheus.Counter
	DuplicateFinalizes  prometheus.Counter
	PaymentsVerified    prometheus.Counter
	SignatureMismatches prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Orders durably persisted by the reconciler.",
		}),
		DuplicateFinalizes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_duplicate_finalizes_total",
			Help: "Finalize calls that resolved to an already-existing order.",
		}),
		PaymentsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_payments_verified_total",
			Help: "Gateway payments that passed signature verification.",
		}),
		SignatureMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_payment_signature_mismatches_total",
			Help: "Gateway payment callbacks rejected for a bad signature.",
		}),
	}

	registry.MustRegister(
		m.OrdersCreated,
		m.DuplicateFinalizes,
		m.PaymentsVerified,
		m.SignatureMismatches,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
