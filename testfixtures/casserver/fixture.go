package casserver

import (
	"net/http/httptest"
	"testing"
)

// TestCAS is a running fake CAS server for integration tests.
type TestCAS struct {
	t      testing.TB
	core   *Server
	server *httptest.Server
}

// Start launches a fake CAS server. Call Close() when done.
func Start(t testing.TB) *TestCAS {
	t.Helper()
	core := New()
	return &TestCAS{
		t:      t,
		core:   core,
		server: httptest.NewServer(core.Handler()),
	}
}

// URL returns the server prefix, suitable for validator constructors.
func (c *TestCAS) URL() string {
	return c.server.URL
}

// Core exposes the underlying server for ticket issuance and failure
// injection.
func (c *TestCAS) Core() *Server {
	return c.core
}

// IssueTicket registers a service ticket for the user.
func (c *TestCAS) IssueTicket(user, service string, attributes map[string][]string) string {
	return c.core.IssueTicket(user, service, attributes)
}

// Close shuts the server down.
func (c *TestCAS) Close() {
	c.server.Close()
}
