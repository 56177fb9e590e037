package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dongw_events_total",
			Help: "Webhook events by processing outcome",
		},
		[]string{"outcome"}, // completed|ignored|duplicate|invalid|failed
	)

	AcknowledgementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dongw_acknowledgements_total",
			Help: "Acknowledgement texts by source",
		},
		[]string{"source"}, // generated|fallback
	)

	EmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dongw_emails_total",
			Help: "Receipt email attempts by status",
		},
		[]string{"status"}, // sent|failed
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		EventsTotal,
		AcknowledgementsTotal,
		EmailsTotal,
	)
}
