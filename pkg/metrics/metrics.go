package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationCreated counts notifications created, by type and routing decision
	NotificationCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_created_total",
			Help: "Total number of notifications created",
		},
		[]string{"type", "preference"},
	)

	// EmailSent counts email delivery attempts by kind and outcome
	EmailSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_email_total",
			Help: "Total number of notification emails attempted",
		},
		[]string{"kind", "status"}, // kind: immediate, digest; status: sent, failed
	)

	// DigestsDropped counts digests dropped after exhausting send retries
	DigestsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_digests_dropped_total",
			Help: "Total number of digests dropped after exhausting retries",
		},
	)

	// DigestSize observes how many events each dispatched digest contained
	DigestSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_digest_size",
			Help:    "Number of events per dispatched digest",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
		},
	)

	// PayoutsComputed counts payout computations by outcome
	PayoutsComputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_computed_total",
			Help: "Total number of payout computations",
		},
		[]string{"status"}, // status: success, config_error, rate_error, duplicate
	)

	// PayoutAmount observes payout instruction amounts by currency
	PayoutAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payout_instruction_amount",
			Help:    "Payout instruction amounts in the destination currency",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 to ~16k
		},
		[]string{"currency"},
	)
)
