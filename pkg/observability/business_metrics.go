package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intent issuance metrics
	paymentIntentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_intents_created_total",
		Help: "Total payment intents created against the processor",
	}, []string{
		"currency",
		"outcome", // created, rejected, processor_error
	})

	// Webhook reconciliation metrics
	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total webhook events received, by classified kind and outcome",
	}, []string{
		"kind",    // intent_succeeded, intent_payment_failed, payment_method_attached, unrecognized
		"outcome", // applied, duplicate, uncorrelated, auth_failed, error
	})

	// Ledger metrics
	paymentsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Total payment records written to the ledger",
	}, []string{
		"status", // completed, failed
		"currency",
	})

	paymentAmountMinorUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_amount_minor_units_total",
		Help: "Total payment amount in minor currency units (for revenue tracking)",
	}, []string{
		"status",
		"currency",
	})

	dealTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deal_transitions_total",
		Help: "Total deal status transitions applied by the reconciler",
	}, []string{
		"to",      // completed, failed
		"outcome", // applied, conflict, error
	})
)

// RecordIntentCreation records an intent issuance attempt
func RecordIntentCreation(currency, outcome string) {
	paymentIntentsCreatedTotal.WithLabelValues(currency, outcome).Inc()
}

// RecordWebhookEvent records a received webhook event by kind and outcome
func RecordWebhookEvent(kind, outcome string) {
	webhookEventsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPayment records a ledger payment write
// Only first-time writes should be recorded; duplicates are counted through
// RecordWebhookEvent with the duplicate outcome instead
func RecordPayment(status, currency string, amountMinorUnits int64) {
	paymentsRecordedTotal.WithLabelValues(status, currency).Inc()
	paymentAmountMinorUnits.WithLabelValues(status, currency).Add(float64(amountMinorUnits))
}

// RecordDealTransition records a reconciler-driven deal status transition
func RecordDealTransition(to, outcome string) {
	dealTransitionsTotal.WithLabelValues(to, outcome).Inc()
}
