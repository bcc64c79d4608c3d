package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// PrometheusMetricsRecorder records metrics using Prometheus.
type PrometheusMetricsRecorder struct {
	validationsTotal         *prometheus.CounterVec
	ticketsStoredTotal       prometheus.Counter
	ticketVerificationsTotal *prometheus.CounterVec
	ticketsRevokedTotal      prometheus.Counter
	logoutNotificationsTotal *prometheus.CounterVec
	gatewayTransitionsTotal  *prometheus.CounterVec
	proxyTicketRequestsTotal *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder creates a new Prometheus metrics recorder
// using the default Prometheus registry.
func NewPrometheusMetricsRecorder() *PrometheusMetricsRecorder {
	return NewPrometheusMetricsRecorderWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsRecorderWithRegistry creates a new Prometheus metrics
// recorder with a custom registry. Use this for testing.
func NewPrometheusMetricsRecorderWithRegistry(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	validationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_sp_validations_total",
		Help: "Total ticket validation attempts",
	}, []string{"protocol", "result"})

	ticketsStoredTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cas_sp_tickets_stored_total",
		Help: "Total authentication tickets stored",
	})

	ticketVerificationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_sp_ticket_verifications_total",
		Help: "Total incoming ticket verification attempts",
	}, []string{"result"})

	ticketsRevokedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cas_sp_tickets_revoked_total",
		Help: "Total authentication tickets revoked",
	})

	logoutNotificationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_sp_logout_notifications_total",
		Help: "Total inbound single-logout notifications",
	}, []string{"result"})

	gatewayTransitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_sp_gateway_transitions_total",
		Help: "Total gateway state machine transitions",
	}, []string{"state"})

	proxyTicketRequestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cas_sp_proxy_ticket_requests_total",
		Help: "Total proxy ticket exchange attempts",
	}, []string{"result"})

	reg.MustRegister(
		validationsTotal,
		ticketsStoredTotal,
		ticketVerificationsTotal,
		ticketsRevokedTotal,
		logoutNotificationsTotal,
		gatewayTransitionsTotal,
		proxyTicketRequestsTotal,
	)

	return &PrometheusMetricsRecorder{
		validationsTotal:         validationsTotal,
		ticketsStoredTotal:       ticketsStoredTotal,
		ticketVerificationsTotal: ticketVerificationsTotal,
		ticketsRevokedTotal:      ticketsRevokedTotal,
		logoutNotificationsTotal: logoutNotificationsTotal,
		gatewayTransitionsTotal:  gatewayTransitionsTotal,
		proxyTicketRequestsTotal: proxyTicketRequestsTotal,
	}
}

// RecordValidation records a ticket validation attempt.
func (p *PrometheusMetricsRecorder) RecordValidation(protocol string, success bool) {
	p.validationsTotal.WithLabelValues(protocol, resultLabel(success)).Inc()
}

// RecordTicketStored records an authentication ticket insertion.
func (p *PrometheusMetricsRecorder) RecordTicketStored() {
	p.ticketsStoredTotal.Inc()
}

// RecordTicketVerification records a VerifyIncoming result.
func (p *PrometheusMetricsRecorder) RecordTicketVerification(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	p.ticketVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordTicketRevoked records revoked tickets.
func (p *PrometheusMetricsRecorder) RecordTicketRevoked(count int) {
	p.ticketsRevokedTotal.Add(float64(count))
}

// RecordLogoutNotification records an inbound single-logout notification.
func (p *PrometheusMetricsRecorder) RecordLogoutNotification(handled bool) {
	p.logoutNotificationsTotal.WithLabelValues(strconv.FormatBool(handled)).Inc()
}

// RecordGatewayTransition records a gateway state machine transition.
func (p *PrometheusMetricsRecorder) RecordGatewayTransition(to string) {
	p.gatewayTransitionsTotal.WithLabelValues(to).Inc()
}

// RecordProxyTicketRequest records a proxy ticket exchange attempt.
func (p *PrometheusMetricsRecorder) RecordProxyTicketRequest(success bool) {
	p.proxyTicketRequestsTotal.WithLabelValues(resultLabel(success)).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Ensure PrometheusMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*PrometheusMetricsRecorder)(nil)
