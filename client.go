package cassp

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/adapters/driven/correlation"
	"github.com/philiph/go-cas-sp/internal/adapters/driven/proxygranting"
	"github.com/philiph/go-cas-sp/internal/adapters/driven/ticketstore"
	"github.com/philiph/go-cas-sp/internal/adapters/driven/validation"
	"github.com/philiph/go-cas-sp/internal/adapters/driving/httpsp"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// Client assembles the validator, stores, and middleware from a Config.
// It is the package's front door; hosts that need finer control can wire
// the internal adapters directly.
type Client struct {
	config        Config
	validator     ports.TicketValidator
	tickets       ports.TicketStore
	correlation   ports.CorrelationStore
	proxyRegistry ports.ProxyGrantingStore
	authenticator *httpsp.Authenticator
	sweeper       *ticketstore.Sweeper

	redisClient *redis.Client
	leveldb     *ticketstore.LevelDBStore
	logger      *zap.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger     *zap.Logger
	metrics    ports.MetricsRecorder
	httpClient *http.Client
	clock      ports.Clock
	sessions   ports.SessionRegistry
}

// WithLogger returns an option that sets the logger for all components.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// WithMetricsRecorder returns an option that sets the metrics recorder for
// all components.
func WithMetricsRecorder(recorder ports.MetricsRecorder) ClientOption {
	return func(o *clientOptions) { o.metrics = recorder }
}

// WithHTTPClient returns an option that sets the HTTP client used for
// server calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = client }
}

// WithClock returns an option that sets a custom clock.
func WithClock(clock ports.Clock) ClientOption {
	return func(o *clientOptions) { o.clock = clock }
}

// WithSessionRegistry returns an option that sets the registry single
// logout terminates sessions through.
func WithSessionRegistry(sessions ports.SessionRegistry) ClientOption {
	return func(o *clientOptions) { o.sessions = sessions }
}

// NewClient validates the config and builds a ready-to-mount client.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{config: cfg, logger: o.logger}

	if err := c.buildStores(cfg, o); err != nil {
		return nil, err
	}
	c.buildValidator(cfg, o)

	auth, err := httpsp.NewAuthenticator(
		httpsp.Settings{
			ServerLoginURL: cfg.LoginURL(),
			ServiceURL:     cfg.ServiceURL,
			CookieName:     cfg.Cookie.Name,
			CookieSecret:   []byte(cfg.Cookie.Secret),
			TicketTimeout:  cfg.TicketTimeout,
			Gateway:        cfg.Gateway,
			Renew:          cfg.Renew,
		},
		c.validator, c.tickets, c.correlation,
		authenticatorOptions(o)...,
	)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.authenticator = auth

	if cfg.SweepSchedule != "" {
		sweeper, err := ticketstore.NewSweeper(c.tickets, c.proxyRegistry, cfg.SweepSchedule, o.logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.sweeper = sweeper
		c.sweeper.Start()
	}

	return c, nil
}

func (c *Client) buildStores(cfg Config, o clientOptions) error {
	storeOpts := []ticketstore.StoreOption{}
	if o.logger != nil {
		storeOpts = append(storeOpts, ticketstore.WithLogger(o.logger))
	}
	if o.metrics != nil {
		storeOpts = append(storeOpts, ticketstore.WithMetricsRecorder(o.metrics))
	}
	if o.clock != nil {
		storeOpts = append(storeOpts, ticketstore.WithClock(o.clock))
	}

	switch cfg.TicketStore.Backend {
	case BackendRedis:
		c.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.TicketStore.Redis.Addr,
			Password: cfg.TicketStore.Redis.Password,
			DB:       cfg.TicketStore.Redis.DB,
		})
		ns := cfg.TicketStore.Redis.Namespace
		c.tickets = ticketstore.NewRedisStore(c.redisClient, ns, storeOpts...)
		c.correlation = correlation.NewRedisStore(c.redisClient, ns)
		if cfg.ProxyCallbackURL != "" {
			c.proxyRegistry = proxygranting.NewRedisRegistry(c.redisClient, ns, proxygranting.DefaultTTL)
		}
	case BackendLevelDB:
		store, err := ticketstore.NewLevelDBStore(cfg.TicketStore.LevelDB.Path, nil, storeOpts...)
		if err != nil {
			return err
		}
		c.leveldb = store
		c.tickets = store
		c.correlation = correlation.NewMemoryStore(o.logger)
	default:
		c.tickets = ticketstore.NewMemoryStore(storeOpts...)
		c.correlation = correlation.NewMemoryStore(o.logger)
	}

	if c.proxyRegistry == nil && cfg.ProxyCallbackURL != "" {
		clock := o.clock
		if clock == nil {
			clock = ports.RealClock{}
		}
		c.proxyRegistry = proxygranting.NewMemoryRegistry(proxygranting.DefaultTTL, clock)
	}
	return nil
}

func (c *Client) buildValidator(cfg Config, o clientOptions) {
	valOpts := []validation.Option{}
	if o.logger != nil {
		valOpts = append(valOpts, validation.WithLogger(o.logger))
	}
	if o.metrics != nil {
		valOpts = append(valOpts, validation.WithMetricsRecorder(o.metrics))
	}
	if o.httpClient != nil {
		valOpts = append(valOpts, validation.WithHTTPClient(o.httpClient))
	}
	if o.clock != nil {
		valOpts = append(valOpts, validation.WithClock(o.clock))
	}
	if cfg.Renew {
		valOpts = append(valOpts, validation.WithRenew())
	}
	if cfg.ArtifactParameter != "" {
		valOpts = append(valOpts, validation.WithArtifactParameterName(cfg.ArtifactParameter))
	}
	if cfg.ServiceParameter != "" {
		valOpts = append(valOpts, validation.WithServiceParameterName(cfg.ServiceParameter))
	}

	switch cfg.Protocol {
	case ProtocolCAS1:
		c.validator = validation.NewCAS1Validator(cfg.ServerURL, valOpts...)
	case ProtocolSAML11:
		if cfg.Tolerance > 0 {
			valOpts = append(valOpts, validation.WithTolerance(cfg.Tolerance))
		}
		c.validator = validation.NewSAML11Validator(cfg.ServerURL, valOpts...)
	default:
		if cfg.ProxyCallbackURL != "" {
			valOpts = append(valOpts, validation.WithProxyCallback(cfg.ProxyCallbackURL, c.proxyRegistry))
		}
		c.validator = validation.NewCAS2Validator(cfg.ServerURL, valOpts...)
	}
}

func authenticatorOptions(o clientOptions) []httpsp.Option {
	authOpts := []httpsp.Option{}
	if o.logger != nil {
		authOpts = append(authOpts, httpsp.WithLogger(o.logger))
	}
	if o.metrics != nil {
		authOpts = append(authOpts, httpsp.WithMetricsRecorder(o.metrics))
	}
	if o.clock != nil {
		authOpts = append(authOpts, httpsp.WithClock(o.clock))
	}
	if o.sessions != nil {
		authOpts = append(authOpts, httpsp.WithSessionRegistry(o.sessions))
	}
	return authOpts
}

// Middleware wraps next with CAS authentication.
func (c *Client) Middleware(next http.Handler) http.Handler {
	return c.authenticator.Middleware(next)
}

// Validator exposes the protocol validator for direct use.
func (c *Client) Validator() ports.TicketValidator {
	return c.validator
}

// TicketStore exposes the assembled ticket store.
func (c *Client) TicketStore() ports.TicketStore {
	return c.tickets
}

// Logout exposes the single-logout handler for dedicated routes.
func (c *Client) Logout() *httpsp.LogoutHandler {
	return c.authenticator.Logout()
}

// PGTCallbackHandler returns the handler to mount at the proxy callback
// URL, or nil when proxying is not configured.
func (c *Client) PGTCallbackHandler() http.Handler {
	if c.proxyRegistry == nil {
		return nil
	}
	return httpsp.NewPGTCallbackHandler(c.proxyRegistry, c.logger)
}

// Close stops the sweeper and releases store resources.
func (c *Client) Close() error {
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
	var firstErr error
	if c.leveldb != nil {
		if err := c.leveldb.Close(); err != nil {
			firstErr = err
		}
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
