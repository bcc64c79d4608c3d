package ports

// MetricsRecorder is the port interface for recording metrics.
// Implementations are adapters (PrometheusMetricsRecorder for production,
// NoopMetricsRecorder for disabled/testing).
type MetricsRecorder interface {
	// RecordValidation records a ticket validation attempt.
	RecordValidation(protocol string, success bool)

	// RecordTicketStored records an authentication ticket insertion.
	RecordTicketStored()

	// RecordTicketVerification records a VerifyIncoming result.
	RecordTicketVerification(valid bool)

	// RecordTicketRevoked records revoked tickets.
	RecordTicketRevoked(count int)

	// RecordLogoutNotification records an inbound single-logout
	// notification and whether it resolved to a local session.
	RecordLogoutNotification(handled bool)

	// RecordGatewayTransition records a gateway state machine transition.
	RecordGatewayTransition(to string)

	// RecordProxyTicketRequest records a proxy ticket exchange attempt.
	RecordProxyTicketRequest(success bool)
}
