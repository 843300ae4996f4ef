package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records confirmation outcomes for the payment flow.
type CheckoutMetrics struct {
	confirmations *prometheus.CounterVec
	intents       *prometheus.CounterVec
	incidents     prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_confirmations_total",
		Help: "Confirmation attempts by terminal flow state.",
	}, []string{"state"})
	intents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_intents_total",
		Help: "Payment intent creations by result.",
	}, []string{"result"})
	incidents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_recording_incidents_total",
		Help: "Charged-but-unrecorded payments persisted for support follow-up.",
	})
	reg.MustRegister(confirmations, intents, incidents)
	return &CheckoutMetrics{
		confirmations: confirmations,
		intents:       intents,
		incidents:     incidents,
	}
}

// ObserveConfirmation counts a confirmation attempt ending in the given state.
func (c *CheckoutMetrics) ObserveConfirmation(state string) {
	if c == nil || c.confirmations == nil {
		return
	}
	c.confirmations.WithLabelValues(normalizeLabel(state)).Inc()
}

// ObserveIntent counts an intent creation attempt.
func (c *CheckoutMetrics) ObserveIntent(result string) {
	if c == nil || c.intents == nil {
		return
	}
	c.intents.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveIncident counts a persisted recording incident.
func (c *CheckoutMetrics) ObserveIncident() {
	if c == nil || c.incidents == nil {
		return
	}
	c.incidents.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
