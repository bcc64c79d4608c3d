package metrics

import (
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// NoopMetricsRecorder is a no-op implementation for when metrics are disabled.
// All methods are safe to call and do nothing.
type NoopMetricsRecorder struct{}

// NewNoopMetricsRecorder creates a new no-op metrics recorder.
func NewNoopMetricsRecorder() *NoopMetricsRecorder {
	return &NoopMetricsRecorder{}
}

// RecordValidation is a no-op.
func (n *NoopMetricsRecorder) RecordValidation(protocol string, success bool) {}

// RecordTicketStored is a no-op.
func (n *NoopMetricsRecorder) RecordTicketStored() {}

// RecordTicketVerification is a no-op.
func (n *NoopMetricsRecorder) RecordTicketVerification(valid bool) {}

// RecordTicketRevoked is a no-op.
func (n *NoopMetricsRecorder) RecordTicketRevoked(count int) {}

// RecordLogoutNotification is a no-op.
func (n *NoopMetricsRecorder) RecordLogoutNotification(handled bool) {}

// RecordGatewayTransition is a no-op.
func (n *NoopMetricsRecorder) RecordGatewayTransition(to string) {}

// RecordProxyTicketRequest is a no-op.
func (n *NoopMetricsRecorder) RecordProxyTicketRequest(success bool) {}

// Ensure NoopMetricsRecorder implements ports.MetricsRecorder
var _ ports.MetricsRecorder = (*NoopMetricsRecorder)(nil)
