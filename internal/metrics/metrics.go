// Package metrics registers the Prometheus metrics for the dashboard backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	Logins           prometheus.Counter
	LoginFailures    prometheus.Counter
	SalesCompleted   prometheus.Counter
	SalesRevenue     prometheus.Counter
	MedicinesCreated prometheus.Counter
	Refills          prometheus.Counter
}

// New creates and registers all metrics on its own registry so repeated
// construction in tests never panics.
func New() (*Metrics, *prometheus.Registry) {
	m := &Metrics{
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Total successful logins",
		}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "login_failures_total",
			Help: "Total rejected login attempts",
		}),
		SalesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sales_completed_total",
			Help: "Total completed checkouts",
		}),
		SalesRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sales_revenue_total",
			Help: "Cumulative post-discount sale amounts",
		}),
		MedicinesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medicines_created_total",
			Help: "Total medicines added to inventory",
		}),
		Refills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refills_total",
			Help: "Total refill events recorded",
		}),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		m.Logins,
		m.LoginFailures,
		m.SalesCompleted,
		m.SalesRevenue,
		m.MedicinesCreated,
		m.Refills,
	)
	return m, reg
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
