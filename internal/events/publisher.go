// Package events fans order lifecycle events out to the live admin feed and
// the metrics counters.
package events

import (
	"github.com/nexus-store/storefront/internal/metrics"
	"github.com/nexus-store/storefront/internal/order"
	"github.com/nexus-store/storefront/internal/ws"
)

type Publisher struct {
	hub     *ws.Hub
	metrics *metrics.Metrics
}

func NewPublisher(hub *ws.Hub, m *metrics.Metrics) *Publisher {
	return &Publisher{hub: hub, metrics: m}
}

func (p *Publisher) OrderCreated(o *order.Order) {
	if p.metrics != nil {
		p.metrics.OrdersCreated.Inc()
	}
	if p.hub != nil {
		p.hub.Broadcast("order_created", o)
	}
}
