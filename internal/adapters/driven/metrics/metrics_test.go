//go:build unit

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// TestNoopMetricsRecorder_AllMethods verifies all methods don't panic.
func TestNoopMetricsRecorder_AllMethods(t *testing.T) {
	var recorder ports.MetricsRecorder = NewNoopMetricsRecorder()

	recorder.RecordValidation("CAS2.0", true)
	recorder.RecordValidation("CAS2.0", false)
	recorder.RecordTicketStored()
	recorder.RecordTicketVerification(true)
	recorder.RecordTicketVerification(false)
	recorder.RecordTicketRevoked(3)
	recorder.RecordLogoutNotification(true)
	recorder.RecordGatewayTransition("Attempting")
	recorder.RecordProxyTicketRequest(false)
}

// counterValue finds a counter sample by metric name and label values.
func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(pairs []*io_prometheus_client.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, pair := range pairs {
		if want[pair.GetName()] != pair.GetValue() {
			return false
		}
	}
	return true
}

func TestPrometheusMetricsRecorder_RecordValidation(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusMetricsRecorderWithRegistry(registry)

	recorder.RecordValidation("CAS2.0", true)
	recorder.RecordValidation("CAS2.0", true)
	recorder.RecordValidation("SAML1.1", false)

	if got := counterValue(t, registry, "cas_sp_validations_total", map[string]string{"protocol": "CAS2.0", "result": "success"}); got != 2 {
		t.Errorf("CAS2.0 success = %v, want 2", got)
	}
	if got := counterValue(t, registry, "cas_sp_validations_total", map[string]string{"protocol": "SAML1.1", "result": "failure"}); got != 1 {
		t.Errorf("SAML1.1 failure = %v, want 1", got)
	}
}

func TestPrometheusMetricsRecorder_TicketCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusMetricsRecorderWithRegistry(registry)

	recorder.RecordTicketStored()
	recorder.RecordTicketStored()
	recorder.RecordTicketRevoked(3)
	recorder.RecordTicketVerification(true)
	recorder.RecordTicketVerification(false)

	if got := counterValue(t, registry, "cas_sp_tickets_stored_total", nil); got != 2 {
		t.Errorf("stored = %v, want 2", got)
	}
	if got := counterValue(t, registry, "cas_sp_tickets_revoked_total", nil); got != 3 {
		t.Errorf("revoked = %v, want 3", got)
	}
	if got := counterValue(t, registry, "cas_sp_ticket_verifications_total", map[string]string{"result": "valid"}); got != 1 {
		t.Errorf("valid verifications = %v, want 1", got)
	}
}

func TestPrometheusMetricsRecorder_FlowCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := NewPrometheusMetricsRecorderWithRegistry(registry)

	recorder.RecordLogoutNotification(true)
	recorder.RecordGatewayTransition("Failed")
	recorder.RecordProxyTicketRequest(true)

	if got := counterValue(t, registry, "cas_sp_logout_notifications_total", map[string]string{"result": "true"}); got != 1 {
		t.Errorf("logout notifications = %v, want 1", got)
	}
	if got := counterValue(t, registry, "cas_sp_gateway_transitions_total", map[string]string{"state": "Failed"}); got != 1 {
		t.Errorf("gateway transitions = %v, want 1", got)
	}
	if got := counterValue(t, registry, "cas_sp_proxy_ticket_requests_total", map[string]string{"result": "success"}); got != 1 {
		t.Errorf("proxy requests = %v, want 1", got)
	}
}
