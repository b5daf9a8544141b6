package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LicensingMetrics records activation, issuance, and webhook outcomes.
type LicensingMetrics struct {
	activations *prometheus.CounterVec
	issued      *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
}

// NewLicensingMetrics registers the licensing metrics on the provided registerer.
func NewLicensingMetrics(reg prometheus.Registerer) *LicensingMetrics {
	if reg == nil {
		return &LicensingMetrics{}
	}
	activations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "license_activations_total",
		Help: "License activation attempts by outcome reason.",
	}, []string{"reason"})
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "licenses_issued_total",
		Help: "Licenses issued by source.",
	}, []string{"source"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook deliveries by event type and disposition.",
	}, []string{"event_type", "disposition"})
	reg.MustRegister(activations, issued, webhooks)
	return &LicensingMetrics{
		activations: activations,
		issued:      issued,
		webhooks:    webhooks,
	}
}

// IncActivation counts an activation attempt with its outcome reason.
func (m *LicensingMetrics) IncActivation(reason string) {
	if m == nil || m.activations == nil {
		return
	}
	m.activations.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncIssued counts an issued license by source.
func (m *LicensingMetrics) IncIssued(source string) {
	if m == nil || m.issued == nil {
		return
	}
	m.issued.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncWebhook counts a webhook delivery disposition for the event type.
func (m *LicensingMetrics) IncWebhook(eventType, disposition string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(eventType), normalizeLabel(disposition)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
