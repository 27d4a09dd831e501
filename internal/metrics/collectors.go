package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SessionStats is read on every scrape
type SessionStats interface {
	// Stats returns the number of known users and the number of items sitting in carts
	Stats() (users int, cartItems int)
}

// SessionCollector exposes the size of the session store as gauges
type SessionCollector struct {
	source SessionStats

	activeUsers *prometheus.Desc
	cartItems   *prometheus.Desc
}

// NewSessionCollector creates a collector over the given store
func NewSessionCollector(source SessionStats) *SessionCollector {
	return &SessionCollector{
		source: source,
		activeUsers: prometheus.NewDesc(
			"clickstream_active_users",
			"Distinct users held by the session store",
			nil, nil,
		),
		cartItems: prometheus.NewDesc(
			"clickstream_cart_items",
			"Products currently sitting in carts across all sessions",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeUsers
	ch <- c.cartItems
}

// Collect implements prometheus.Collector
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	users, items := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.activeUsers, prometheus.GaugeValue, float64(users))
	ch <- prometheus.MustNewConstMetric(c.cartItems, prometheus.GaugeValue, float64(items))
}
