// Package metrics defines all custom Prometheus metrics for the transfer
// system. It is the single source of truth for metric names, labels, and help
// strings; metrics register with the default registry at import time via
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "transfer"

// ── Shipment metrics ──────────────────────────────────────────────────────────

// ShipmentsCreatedTotal counts newly created shipments.
// Label:
//   - organisation: name of the source organisation
var ShipmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipments_created_total",
		Help:      "Total number of shipments created, by source organisation.",
	},
	[]string{"organisation"},
)

// ShipmentTransitionsTotal counts successful state transitions.
// Label:
//   - state: the state entered (e.g. "sent", "completed")
var ShipmentTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipment_transitions_total",
		Help:      "Total number of successful shipment state transitions, by new state.",
	},
	[]string{"state"},
)

// TransitionErrorsTotal counts rejected or failed transitions.
// Label:
//   - reason: short description (e.g. "invalid_transition", "update_failed")
var TransitionErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transition_errors_total",
		Help:      "Total number of shipment transitions that were rejected or failed.",
	},
	[]string{"reason"},
)

// ReconcileDuration measures how long one reconciliation call takes end-to-end.
var ReconcileDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reconcile_duration_seconds",
		Help:      "Duration of a reconciliation call, from load to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Audit pipeline metrics ────────────────────────────────────────────────────

// AuditEventsProcessedTotal counts transition events persisted to the audit
// trail.
// Label:
//   - action: the recorded action (e.g. "sent", "box_received")
var AuditEventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_processed_total",
		Help:      "Total number of transition events written to the audit trail.",
	},
	[]string{"action"},
)

// AuditErrorsTotal counts transition events that failed processing.
// Label:
//   - reason: short description of the failure (e.g. "insert_failed")
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of transition events that failed processing.",
	},
	[]string{"reason"},
)

// AuditDedupTotal counts deduplication decisions in the audit pipeline.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new event, persisted)
var AuditDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dedup_total",
		Help:      "Total number of audit deduplication checks, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of transition events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
