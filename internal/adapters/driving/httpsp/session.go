package httpsp

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// DefaultCookieName is the session cookie the middleware issues.
const DefaultCookieName = "cas_session"

// ErrSessionInvalid is returned when a session cookie fails to decode or
// verify.
var ErrSessionInvalid = errors.New("session cookie invalid")

// sessionClaims defines the JWT claims structure for sessions. The token
// binds the browser to the service ticket it authenticated with; per-request
// authority still comes from the ticket store via VerifyIncoming.
type sessionClaims struct {
	jwt.RegisteredClaims
	ServiceTicket string `json:"st"`
}

// cookieCodec signs and verifies the stateless session cookie (HS256).
type cookieCodec struct {
	name   string
	secret []byte
}

func newCookieCodec(name string, secret []byte) cookieCodec {
	if name == "" {
		name = DefaultCookieName
	}
	return cookieCodec{name: name, secret: secret}
}

// issue builds a signed token for a freshly stored authentication ticket.
// The token expiry mirrors the ticket's validity window.
func (c cookieCodec) issue(ticket *domain.AuthenticationTicket, sessionID string) (string, error) {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   ticket.PrincipalName,
			IssuedAt:  jwt.NewNumericDate(ticket.ValidFrom),
			ExpiresAt: jwt.NewNumericDate(ticket.ValidUntil),
		},
		ServiceTicket: ticket.ServiceTicket,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// decode verifies a token and returns its claims.
func (c cookieCodec) decode(token string) (*sessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrSessionInvalid
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.ServiceTicket == "" {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}

// candidate rebuilds the request-supplied authentication ticket from the
// cookie claims, for verification against the stored one.
func (claims *sessionClaims) candidate() *domain.AuthenticationTicket {
	t := &domain.AuthenticationTicket{
		ServiceTicket: claims.ServiceTicket,
		PrincipalName: claims.Subject,
	}
	if claims.IssuedAt != nil {
		t.ValidFrom = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		t.ValidUntil = claims.ExpiresAt.Time
	}
	return t
}

func (c cookieCodec) set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c cookieCodec) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
