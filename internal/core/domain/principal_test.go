//go:build unit

package domain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPrincipal_GetTicketForWithoutCapability(t *testing.T) {
	assertion, _ := NewAssertion("jdoe", time.Time{}, time.Time{}, nil)
	p := NewPrincipal(assertion, AuthTypeCAS2)

	_, err := p.GetTicketFor(context.Background(), "https://backend.example.edu/api")
	if !errors.Is(err, ErrNoProxyCapability) {
		t.Fatalf("expected ErrNoProxyCapability, got %v", err)
	}
}

func TestPrincipal_AttachProxyCapability(t *testing.T) {
	assertion, _ := NewAssertion("jdoe", time.Time{}, time.Time{}, nil)
	p := NewPrincipal(assertion, AuthTypeCAS2)

	p.AttachProxyCapability("PGTIOU-1", func(_ context.Context, target string) (string, error) {
		return "PT-for-" + target, nil
	})

	if got := p.ProxyGrantingTicketIOU(); got != "PGTIOU-1" {
		t.Errorf("ProxyGrantingTicketIOU = %q", got)
	}
	ticket, err := p.GetTicketFor(context.Background(), "svc")
	if err != nil {
		t.Fatalf("GetTicketFor: %v", err)
	}
	if ticket != "PT-for-svc" {
		t.Errorf("GetTicketFor = %q", ticket)
	}
}
