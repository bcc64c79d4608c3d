package ticketstore

import (
	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// StoreOption is a functional option for configuring ticket store backends.
type StoreOption func(*storeOptions)

type storeOptions struct {
	logger          *zap.Logger
	metricsRecorder ports.MetricsRecorder
	clock           ports.Clock
}

func newStoreOptions(opts []StoreOption) storeOptions {
	o := storeOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = ports.RealClock{}
	}
	return o
}

// WithLogger returns an option that sets the logger for the store.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithMetricsRecorder returns an option that sets the metrics recorder.
func WithMetricsRecorder(recorder ports.MetricsRecorder) StoreOption {
	return func(o *storeOptions) {
		o.metricsRecorder = recorder
	}
}

// WithClock returns an option that sets a custom clock for expiry checks.
// Used for testing ticket expiry without time.Sleep.
func WithClock(clock ports.Clock) StoreOption {
	return func(o *storeOptions) {
		o.clock = clock
	}
}

func (o *storeOptions) recordStored() {
	if o.metricsRecorder != nil {
		o.metricsRecorder.RecordTicketStored()
	}
}

func (o *storeOptions) recordRevoked(count int) {
	if o.metricsRecorder != nil && count > 0 {
		o.metricsRecorder.RecordTicketRevoked(count)
	}
}

func (o *storeOptions) recordVerification(valid bool) {
	if o.metricsRecorder != nil {
		o.metricsRecorder.RecordTicketVerification(valid)
	}
}
