// Package casserver provides a fake CAS server for integration testing.
// It issues and redeems tickets over the CAS 1.0, CAS 2.0, and SAML 1.1
// validation endpoints, with optional proxy-granting callbacks.
package casserver

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ticketRecord is what a pending service ticket redeems to.
type ticketRecord struct {
	user       string
	service    string
	attributes map[string][]string
	renewed    bool
}

// Server is the in-memory CAS server core. It implements http.Handler and
// is shared by the httptest fixture and the standalone test daemon.
type Server struct {
	mu      sync.Mutex
	tickets map[string]ticketRecord
	proxies map[string]string // PGT -> user

	// FailValidation forces every validation to report INVALID_TICKET.
	FailValidation bool

	// GatewayUser, when set, lets /login with gateway=true succeed
	// silently as this user. Empty means gateway attempts come back
	// without a ticket.
	GatewayUser string
}

// New creates an empty server.
func New() *Server {
	return &Server{
		tickets: make(map[string]ticketRecord),
		proxies: make(map[string]string),
	}
}

// IssueTicket registers a service ticket for the user and returns it.
func (s *Server) IssueTicket(user, service string, attributes map[string][]string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket := "ST-" + uuid.NewString()
	s.tickets[ticket] = ticketRecord{user: user, service: service, attributes: attributes}
	return ticket
}

// Handler returns the server's route table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/login", s.handleLogin)
	r.Get("/validate", s.handleValidate)
	r.Get("/serviceValidate", s.handleServiceValidate)
	r.Get("/proxyValidate", s.handleServiceValidate)
	r.Get("/proxy", s.handleProxy)
	r.Post("/samlValidate", s.handleSAMLValidate)
	r.Get("/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

// handleLogin mimics the interactive login page only far enough for
// gateway round trips: with gateway=true it either redirects back with a
// ticket for GatewayUser or redirects back bare.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")
	if service == "" {
		http.Error(w, "service required", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("gateway") == "true" {
		if s.GatewayUser == "" {
			http.Redirect(w, r, service, http.StatusFound)
			return
		}
		ticket := s.IssueTicket(s.GatewayUser, service, nil)
		http.Redirect(w, r, appendTicket(service, ticket), http.StatusFound)
		return
	}
	// Interactive login is out of scope; report what would happen.
	fmt.Fprintf(w, "login page for %s\n", service)
}

func appendTicket(service, ticket string) string {
	separator := "?"
	if strings.Contains(service, "?") {
		separator = "&"
	}
	return service + separator + "ticket=" + url.QueryEscape(ticket)
}

// redeem consumes a ticket, enforcing single use and service match.
func (s *Server) redeem(ticket, service string) (ticketRecord, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailValidation {
		return ticketRecord{}, "INVALID_TICKET"
	}
	record, ok := s.tickets[ticket]
	if !ok {
		return ticketRecord{}, "INVALID_TICKET"
	}
	delete(s.tickets, ticket)
	if record.service != "" && record.service != service {
		return ticketRecord{}, "INVALID_SERVICE"
	}
	return record, ""
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	record, failure := s.redeem(r.URL.Query().Get("ticket"), r.URL.Query().Get("service"))
	if failure != "" {
		fmt.Fprint(w, "no\n\n")
		return
	}
	fmt.Fprintf(w, "yes\n%s\n", record.user)
}

func (s *Server) handleServiceValidate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	record, failure := s.redeem(query.Get("ticket"), query.Get("service"))
	w.Header().Set("Content-Type", "text/xml")
	if failure != "" {
		fmt.Fprintf(w, `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationFailure code="%s">Ticket not recognized</cas:authenticationFailure>
</cas:serviceResponse>`, failure)
		return
	}

	var pgtElement string
	if pgtURL := query.Get("pgtUrl"); pgtURL != "" {
		if iou, ok := s.deliverPGT(pgtURL, record.user); ok {
			pgtElement = fmt.Sprintf("\n    <cas:proxyGrantingTicket>%s</cas:proxyGrantingTicket>", iou)
		}
	}

	var attrs strings.Builder
	if len(record.attributes) > 0 {
		attrs.WriteString("\n    <cas:attributes>")
		for name, values := range record.attributes {
			for _, value := range values {
				fmt.Fprintf(&attrs, "\n      <cas:%s>%s</cas:%s>", name, value, name)
			}
		}
		attrs.WriteString("\n    </cas:attributes>")
	}

	fmt.Fprintf(w, `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:authenticationSuccess>
    <cas:user>%s</cas:user>%s%s
  </cas:authenticationSuccess>
</cas:serviceResponse>`, record.user, attrs.String(), pgtElement)
}

// deliverPGT performs the server side of the proxy callback: mint a PGT
// and its IOU, POST-free GET to the callback, and only advertise the IOU
// if the callback answered 200.
func (s *Server) deliverPGT(callbackURL, user string) (string, bool) {
	iou := "PGTIOU-" + uuid.NewString()
	pgt := "PGT-" + uuid.NewString()

	client := &http.Client{Timeout: 5 * time.Second}
	separator := "?"
	if strings.Contains(callbackURL, "?") {
		separator = "&"
	}
	resp, err := client.Get(callbackURL + separator + "pgtIou=" + url.QueryEscape(iou) + "&pgtId=" + url.QueryEscape(pgt))
	if err != nil {
		return "", false
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	s.mu.Lock()
	s.proxies[pgt] = user
	s.mu.Unlock()
	return iou, true
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	pgt := r.URL.Query().Get("pgt")
	target := r.URL.Query().Get("targetService")
	w.Header().Set("Content-Type", "text/xml")

	s.mu.Lock()
	user, ok := s.proxies[pgt]
	s.mu.Unlock()
	if !ok || target == "" {
		fmt.Fprint(w, `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:proxyFailure code="INVALID_TICKET">proxy-granting ticket not recognized</cas:proxyFailure>
</cas:serviceResponse>`)
		return
	}

	ticket := "PT-" + uuid.NewString()
	s.mu.Lock()
	s.tickets[ticket] = ticketRecord{user: user, service: target}
	s.mu.Unlock()

	fmt.Fprintf(w, `<cas:serviceResponse xmlns:cas="http://www.yale.edu/tp/cas">
  <cas:proxySuccess>
    <cas:proxyTicket>%s</cas:proxyTicket>
  </cas:proxySuccess>
</cas:serviceResponse>`, ticket)
}

func (s *Server) handleSAMLValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	// The artifact arrives inside the SOAP body; a real server parses the
	// envelope. For tests, a substring scan is enough.
	artifact := extractArtifact(string(body))

	record, failure := s.redeem(artifact, r.URL.Query().Get("TARGET"))
	w.Header().Set("Content-Type", "text/xml")
	if failure != "" {
		fmt.Fprint(w, samlFailureEnvelope)
		return
	}

	now := time.Now().UTC()
	var attrs strings.Builder
	if len(record.attributes) > 0 {
		fmt.Fprintf(&attrs, samlAttributeStatementOpen, record.user)
		for name, values := range record.attributes {
			fmt.Fprintf(&attrs, `
        <saml:Attribute AttributeName=%q AttributeNamespace="http://www.ja-sig.org/products/cas/">`, name)
			for _, value := range values {
				fmt.Fprintf(&attrs, `
          <saml:AttributeValue>%s</saml:AttributeValue>`, value)
			}
			attrs.WriteString(`
        </saml:Attribute>`)
		}
		attrs.WriteString(`
      </saml:AttributeStatement>`)
	}

	fmt.Fprintf(w, samlSuccessEnvelope,
		now.Format(time.RFC3339),
		now.Add(-30*time.Second).Format(time.RFC3339),
		now.Add(5*time.Minute).Format(time.RFC3339),
		record.user,
		attrs.String())
}

func extractArtifact(body string) string {
	const open = "<samlp:AssertionArtifact>"
	const close = "</samlp:AssertionArtifact>"
	start := strings.Index(body, open)
	if start < 0 {
		return ""
	}
	rest := body[start+len(open):]
	end := strings.Index(rest, close)
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

const samlFailureEnvelope = `<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Body>
    <samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:1.0:protocol">
      <samlp:Status>
        <samlp:StatusCode Value="samlp:RequestDenied"/>
      </samlp:Status>
    </samlp:Response>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

const samlAttributeStatementOpen = `
      <saml:AttributeStatement>
        <saml:Subject>
          <saml:NameIdentifier>%s</saml:NameIdentifier>
        </saml:Subject>`

const samlSuccessEnvelope = `<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Body>
    <samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:1.0:protocol" IssueInstant="%s">
      <samlp:Status>
        <samlp:StatusCode Value="samlp:Success"/>
      </samlp:Status>
      <saml:Assertion xmlns:saml="urn:oasis:names:tc:SAML:1.0:assertion">
        <saml:Conditions NotBefore="%s" NotOnOrAfter="%s"/>
        <saml:AuthenticationStatement>
          <saml:Subject>
            <saml:NameIdentifier>%s</saml:NameIdentifier>
          </saml:Subject>
        </saml:AuthenticationStatement>%s
      </saml:Assertion>
    </samlp:Response>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`
