package httpsp

import (
	"net/http"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// DefaultGatewayCookieName marks gateway attempts. The marker is a
// dedicated cookie, not session state, so it survives the redirect round
// trip to the CAS server and back.
const DefaultGatewayCookieName = "cas_gateway"

// CookieGatewayResolver tracks the gateway state machine in a browser
// cookie. The marker is unsigned: it carries a state tag, not authority,
// and tampering only re-triggers a redirect.
type CookieGatewayResolver struct {
	cookieName string
}

// NewCookieGatewayResolver creates a resolver using the given cookie name
// (DefaultGatewayCookieName when empty).
func NewCookieGatewayResolver(cookieName string) *CookieGatewayResolver {
	if cookieName == "" {
		cookieName = DefaultGatewayCookieName
	}
	return &CookieGatewayResolver{cookieName: cookieName}
}

// Status reads the browser's current gateway state.
func (g *CookieGatewayResolver) Status(r *http.Request) domain.GatewayStatus {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil {
		return domain.GatewayNotAttempted
	}
	return domain.ParseGatewayStatus(cookie.Value)
}

// MarkAttempting records that the browser is being redirected to the
// server with the gateway flag.
func (g *CookieGatewayResolver) MarkAttempting(w http.ResponseWriter) {
	g.write(w, domain.GatewayAttempting)
}

// Resolve records the attempt outcome: Success when the redirect came back
// with a ticket, Failed otherwise. Once terminal, gateway is not retried
// until the marker is cleared.
func (g *CookieGatewayResolver) Resolve(w http.ResponseWriter, r *http.Request, ticketReceived bool) domain.GatewayStatus {
	next, err := g.Status(r).Resolve(ticketReceived)
	if err != nil {
		// No attempt in flight; leave the marker alone.
		return g.Status(r)
	}
	g.write(w, next)
	return next
}

// Clear drops the marker, re-arming the state machine.
func (g *CookieGatewayResolver) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *CookieGatewayResolver) write(w http.ResponseWriter, status domain.GatewayStatus) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    string(status),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
