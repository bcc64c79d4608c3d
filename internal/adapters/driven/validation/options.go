package validation

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// Option is a functional option for configuring validators.
type Option func(*options)

type options struct {
	httpClient      *http.Client
	logger          *zap.Logger
	metricsRecorder ports.MetricsRecorder
	clock           ports.Clock
	renew           bool
	artifactParam   string
	serviceParam    string
	tolerance       time.Duration
	proxyCallback   string
	proxyGranting   ports.ProxyGrantingStore
}

// WithHTTPClient returns an option that replaces the outbound HTTP client.
// Use this to set transport timeouts or TLS configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger returns an option that sets the logger for the validator.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsRecorder returns an option that sets the metrics recorder.
// When set, validation attempts are recorded as metrics.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(o *options) {
		o.metricsRecorder = recorder
	}
}

// WithClock returns an option that sets a custom clock for time operations.
// Used for testing assertion validity windows without time.Sleep.
func WithClock(clock ports.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithRenew returns an option that appends renew=true to validation
// requests, forcing the server to require fresh credentials.
func WithRenew() Option {
	return func(o *options) {
		o.renew = true
	}
}

// WithArtifactParameterName returns an option that overrides the query
// parameter name the validator reads the artifact from.
func WithArtifactParameterName(name string) Option {
	return func(o *options) {
		o.artifactParam = name
	}
}

// WithServiceParameterName returns an option that overrides the query
// parameter name the validator submits the service URL under.
func WithServiceParameterName(name string) Option {
	return func(o *options) {
		o.serviceParam = name
	}
}

// WithTolerance returns an option that sets the clock-skew allowance used
// when checking SAML assertion validity windows.
func WithTolerance(tolerance time.Duration) Option {
	return func(o *options) {
		o.tolerance = tolerance
	}
}

// WithProxyCallback returns an option that enables proxy-granting-ticket
// support: the callback URL is sent as pgtUrl, validation switches to the
// proxyValidate endpoint, and IOUs from successful responses are resolved
// through the given registry.
func WithProxyCallback(callbackURL string, registry ports.ProxyGrantingStore) Option {
	return func(o *options) {
		o.proxyCallback = callbackURL
		o.proxyGranting = registry
	}
}
