package httpsp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/adapters/driven/validation"
	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// DefaultTicketTimeout bounds how long a stored authentication ticket
// stays valid without the assertion imposing a tighter window.
const DefaultTicketTimeout = 8 * time.Hour

// Settings configures the authentication middleware.
type Settings struct {
	// ServerLoginURL is the CAS login endpoint, e.g.
	// "https://cas.example.edu/cas/login".
	ServerLoginURL string

	// ServiceURL overrides the service URL submitted to the server.
	// When empty the request's own URL is used.
	ServiceURL string

	// CookieName names the session cookie (DefaultCookieName when empty).
	CookieName string

	// CookieSecret signs the session cookie. Required.
	CookieSecret []byte

	// TicketTimeout is the configured ticket validity timeout
	// (DefaultTicketTimeout when zero).
	TicketTimeout time.Duration

	// Gateway enables silent authentication attempts.
	Gateway bool

	// Renew forces fresh credentials at the server on every login
	// redirect.
	Renew bool
}

// Authenticator is the net/http driving adapter: it orchestrates
// validate, store, correlate, and challenge around the host's handlers.
// Construct once at process start and share; it holds no per-request state.
type Authenticator struct {
	settings  Settings
	validator ports.TicketValidator
	tickets   ports.TicketStore
	logout    *LogoutHandler
	gateway   *CookieGatewayResolver

	correlation ports.CorrelationStore
	sessions    ports.SessionRegistry
	codec       cookieCodec
	logger      *zap.Logger
	metrics     ports.MetricsRecorder
	clock       ports.Clock
}

// Option is a functional option for configuring the Authenticator.
type Option func(*Authenticator)

// WithLogger returns an option that sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Authenticator) { a.logger = logger }
}

// WithMetricsRecorder returns an option that sets the metrics recorder.
func WithMetricsRecorder(recorder ports.MetricsRecorder) Option {
	return func(a *Authenticator) { a.metrics = recorder }
}

// WithClock returns an option that sets a custom clock.
func WithClock(clock ports.Clock) Option {
	return func(a *Authenticator) { a.clock = clock }
}

// WithSessionRegistry returns an option that sets the registry the
// single-logout handler terminates sessions through.
func WithSessionRegistry(sessions ports.SessionRegistry) Option {
	return func(a *Authenticator) { a.sessions = sessions }
}

// NewAuthenticator wires the middleware over its collaborators.
func NewAuthenticator(settings Settings, validator ports.TicketValidator, tickets ports.TicketStore, correlation ports.CorrelationStore, opts ...Option) (*Authenticator, error) {
	if settings.ServerLoginURL == "" {
		return nil, domain.ConfigError("server login URL is required")
	}
	if len(settings.CookieSecret) == 0 {
		return nil, domain.ConfigError("cookie secret is required")
	}
	if settings.TicketTimeout <= 0 {
		settings.TicketTimeout = DefaultTicketTimeout
	}

	a := &Authenticator{
		settings:    settings,
		validator:   validator,
		tickets:     tickets,
		correlation: correlation,
		codec:       newCookieCodec(settings.CookieName, settings.CookieSecret),
		gateway:     NewCookieGatewayResolver(""),
		clock:       ports.RealClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logout = NewLogoutHandler(correlation, a.sessions, tickets, a.logger, a.metrics)
	return a, nil
}

// Logout exposes the single-logout handler for hosts that mount it on a
// dedicated route instead of relying on the middleware's interception.
func (a *Authenticator) Logout() *LogoutHandler {
	return a.logout
}

// Middleware wraps next with CAS authentication. Logout notifications are
// intercepted first; then artifacts on the URL are redeemed; then the
// session cookie is verified against the ticket store; unauthenticated
// requests are challenged (or passed through anonymously after a failed
// gateway attempt).
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.logout.ProcessLogoutNotification(r) {
			w.WriteHeader(http.StatusOK)
			return
		}

		if artifact := r.URL.Query().Get(a.validator.ArtifactParameterName()); artifact != "" {
			a.redeemArtifact(w, r, artifact)
			return
		}

		if ticket, ok := a.verifySession(r); ok {
			next.ServeHTTP(w, r.WithContext(withTicket(r.Context(), ticket)))
			return
		}

		a.challenge(w, r, next)
	})
}

// redeemArtifact validates the artifact and establishes the session.
func (a *Authenticator) redeemArtifact(w http.ResponseWriter, r *http.Request, artifact string) {
	serviceURL := a.serviceURL(r)

	principal, err := a.validator.Validate(r.Context(), artifact, serviceURL)

	if a.settings.Gateway && a.gateway.Status(r) == domain.GatewayAttempting {
		next := a.gateway.Resolve(w, r, err == nil)
		a.recordGateway(next)
	}

	if err != nil {
		if a.logger != nil {
			a.logger.Warn("ticket validation failed",
				zap.String("remote", r.RemoteAddr),
				zap.Error(err))
		}
		status := http.StatusUnauthorized
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			status = verr.Code.HTTPStatus()
		}
		http.Error(w, "authentication failed", status)
		return
	}

	now := a.clock.Now()
	ticket := domain.NewAuthenticationTicket(artifact, principal.Assertion(), serviceURL, clientHost(r), a.settings.TicketTimeout, now)
	if err := a.tickets.Insert(r.Context(), ticket); err != nil {
		if a.logger != nil {
			a.logger.Error("storing authentication ticket failed", zap.Error(err))
		}
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	sessionID := uuid.NewString()
	mapping := domain.SessionMapping{
		ServerKey:     artifact,
		ClientKey:     sessionID,
		SessionHandle: sessionID,
	}
	if err := a.correlation.StoreState(r.Context(), mapping); err != nil && a.logger != nil {
		a.logger.Warn("storing logout correlation failed", zap.Error(err))
	}

	token, err := a.codec.issue(ticket, sessionID)
	if err != nil {
		if a.logger != nil {
			a.logger.Error("issuing session cookie failed", zap.Error(err))
		}
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}
	a.codec.set(w, token, ticket.ValidUntil)

	if a.logger != nil {
		a.logger.Info("principal authenticated",
			zap.String("principal", principal.Name()),
			zap.String("protocol", string(principal.AuthenticationType())))
	}

	// Send the browser back to the URL it asked for, without the spent
	// artifact.
	http.Redirect(w, r, validation.SanitizeServiceURL(r.URL.RequestURI(), a.validator.ArtifactParameterName()), http.StatusFound)
}

// verifySession decodes the session cookie and gates it through
// VerifyIncoming.
func (a *Authenticator) verifySession(r *http.Request) (*domain.AuthenticationTicket, bool) {
	cookie, err := r.Cookie(a.codec.name)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := a.codec.decode(cookie.Value)
	if err != nil {
		return nil, false
	}
	if !a.tickets.VerifyIncoming(r.Context(), claims.candidate()) {
		return nil, false
	}
	stored, ok, err := a.tickets.Get(r.Context(), claims.ServiceTicket)
	if err != nil || !ok {
		return nil, false
	}
	return stored, true
}

// challenge redirects to the CAS login page, or serves anonymously after a
// failed gateway attempt.
func (a *Authenticator) challenge(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if a.settings.Gateway {
		switch status := a.gateway.Status(r); status {
		case domain.GatewayNotAttempted:
			a.gateway.MarkAttempting(w)
			a.recordGateway(domain.GatewayAttempting)
			http.Redirect(w, r, a.loginURL(r, true), http.StatusFound)
			return
		case domain.GatewayAttempting:
			// Came back from the server without a ticket.
			resolved := a.gateway.Resolve(w, r, false)
			a.recordGateway(resolved)
			next.ServeHTTP(w, r)
			return
		case domain.GatewayFailed:
			// Never loop; the page stays anonymous until the marker is
			// cleared.
			next.ServeHTTP(w, r)
			return
		}
	}
	http.Redirect(w, r, a.loginURL(r, false), http.StatusFound)
}

func (a *Authenticator) loginURL(r *http.Request, gateway bool) string {
	query := url.Values{}
	query.Set(a.validator.ServiceParameterName(), a.serviceURL(r))
	if a.settings.Renew {
		query.Set("renew", "true")
	}
	if gateway {
		query.Set("gateway", "true")
	}
	separator := "?"
	if strings.Contains(a.settings.ServerLoginURL, "?") {
		separator = "&"
	}
	return a.settings.ServerLoginURL + separator + query.Encode()
}

// serviceURL computes the URL submitted to the server: the configured
// override, or the request URL with the artifact parameter stripped.
func (a *Authenticator) serviceURL(r *http.Request) string {
	if a.settings.ServiceURL != "" {
		return a.settings.ServiceURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	raw := scheme + "://" + r.Host + r.URL.RequestURI()
	return validation.SanitizeServiceURL(raw, a.validator.ArtifactParameterName())
}

func (a *Authenticator) recordGateway(to domain.GatewayStatus) {
	if a.metrics != nil {
		a.metrics.RecordGatewayTransition(string(to))
	}
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ticketContextKey keys the authenticated ticket in the request context.
type ticketContextKey struct{}

func withTicket(ctx context.Context, ticket *domain.AuthenticationTicket) context.Context {
	return context.WithValue(ctx, ticketContextKey{}, ticket)
}

// TicketFromContext returns the authenticated ticket for a request that
// passed the middleware, if any.
func TicketFromContext(ctx context.Context) (*domain.AuthenticationTicket, bool) {
	ticket, ok := ctx.Value(ticketContextKey{}).(*domain.AuthenticationTicket)
	return ticket, ok
}
