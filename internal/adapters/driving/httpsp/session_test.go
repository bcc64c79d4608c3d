//go:build unit

package httpsp

import (
	"errors"
	"testing"
	"time"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

func testCodecTicket(t *testing.T) *domain.AuthenticationTicket {
	t.Helper()
	// Real wall time: jwt validates exp during decode.
	now := time.Now().Truncate(time.Second)
	assertion, err := domain.NewAssertion("jdoe", now, time.Time{}, nil)
	if err != nil {
		t.Fatalf("NewAssertion: %v", err)
	}
	return domain.NewAuthenticationTicket("ST-1", assertion, "svc", "host", time.Hour, now)
}

func TestCookieCodec_RoundTrip(t *testing.T) {
	codec := newCookieCodec("", []byte("secret"))
	if codec.name != DefaultCookieName {
		t.Errorf("name = %q, want default", codec.name)
	}

	ticket := testCodecTicket(t)
	token, err := codec.issue(ticket, "session-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := codec.decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.ServiceTicket != "ST-1" || claims.Subject != "jdoe" || claims.ID != "session-1" {
		t.Errorf("claims = %+v", claims)
	}

	candidate := claims.candidate()
	if candidate.ServiceTicket != "ST-1" || candidate.PrincipalName != "jdoe" {
		t.Errorf("candidate = %+v", candidate)
	}
	if !candidate.ValidUntil.Equal(ticket.ValidUntil) {
		t.Errorf("candidate ValidUntil = %v, want %v", candidate.ValidUntil, ticket.ValidUntil)
	}
}

func TestCookieCodec_RejectsWrongKey(t *testing.T) {
	ticket := testCodecTicket(t)
	token, err := newCookieCodec("", []byte("secret-a")).issue(ticket, "session-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = newCookieCodec("", []byte("secret-b")).decode(token)
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestCookieCodec_RejectsGarbage(t *testing.T) {
	codec := newCookieCodec("", []byte("secret"))
	if _, err := codec.decode("not.a.jwt"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}
