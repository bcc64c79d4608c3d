//go:build unit

package validation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// fixedClock pins validator time for window tests.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func samlEnvelope(assertions string) string {
	return fmt.Sprintf(`<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Body>
    <samlp:Response xmlns:samlp="urn:oasis:names:tc:SAML:1.0:protocol">
      <samlp:Status><samlp:StatusCode Value="samlp:Success"/></samlp:Status>
      %s
    </samlp:Response>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`, assertions)
}

func samlAssertion(subject, notBefore, notOnOrAfter, extra string) string {
	conditions := ""
	if notBefore != "" || notOnOrAfter != "" {
		conditions = fmt.Sprintf(`<saml:Conditions NotBefore=%q NotOnOrAfter=%q/>`, notBefore, notOnOrAfter)
	}
	return fmt.Sprintf(`<saml:Assertion xmlns:saml="urn:oasis:names:tc:SAML:1.0:assertion">
        %s
        <saml:AuthenticationStatement>
          <saml:Subject><saml:NameIdentifier>%s</saml:NameIdentifier></saml:Subject>
        </saml:AuthenticationStatement>%s
      </saml:Assertion>`, conditions, subject, extra)
}

func TestSAML11Validator_Success(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	body := samlEnvelope(samlAssertion("jdoe",
		now.Add(-time.Minute).Format(time.RFC3339),
		now.Add(5*time.Minute).Format(time.RFC3339),
		`
        <saml:AttributeStatement>
          <saml:Subject><saml:NameIdentifier>jdoe</saml:NameIdentifier></saml:Subject>
          <saml:Attribute AttributeName="mail" AttributeNamespace="http://www.ja-sig.org/products/cas/">
            <saml:AttributeValue>jdoe@example.edu</saml:AttributeValue>
          </saml:Attribute>
          <saml:Attribute AttributeName="affiliation" AttributeNamespace="http://www.ja-sig.org/products/cas/">
            <saml:AttributeValue>staff</saml:AttributeValue>
            <saml:AttributeValue>member</saml:AttributeValue>
          </saml:Attribute>
        </saml:AttributeStatement>`))

	var gotSOAPAction, gotBody, gotTarget string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSOAPAction = r.Header.Get("SOAPAction")
		gotTarget = r.URL.Query().Get("TARGET")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	v := NewSAML11Validator(ts.URL, WithClock(fixedClock{now}))
	principal, err := v.Validate(context.Background(), "ST-1", "https://app.example.edu/")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if gotSOAPAction != "http://www.oasis-open.org/committees/security" {
		t.Errorf("SOAPAction = %q", gotSOAPAction)
	}
	if gotTarget != "https://app.example.edu/" {
		t.Errorf("TARGET = %q", gotTarget)
	}
	if !strings.Contains(gotBody, "<samlp:AssertionArtifact>ST-1</samlp:AssertionArtifact>") {
		t.Errorf("request body missing artifact: %s", gotBody)
	}

	if principal.Name() != "jdoe" {
		t.Errorf("Name = %q", principal.Name())
	}
	if principal.AuthenticationType() != domain.AuthTypeSAML11 {
		t.Errorf("AuthenticationType = %q", principal.AuthenticationType())
	}
	assertion := principal.Assertion()
	if !assertion.HasUpperBound() {
		t.Error("assertion should carry the server's upper bound")
	}
	if got := assertion.Attributes["affiliation"]; len(got) != 2 {
		t.Errorf("affiliation = %v, want both values", got)
	}
}

func TestSAML11Validator_SkipsExpiredAssertion(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expired := samlAssertion("old",
		now.Add(-time.Hour).Format(time.RFC3339),
		now.Add(-30*time.Minute).Format(time.RFC3339), "")
	live := samlAssertion("jdoe",
		now.Add(-time.Minute).Format(time.RFC3339),
		now.Add(5*time.Minute).Format(time.RFC3339), "")

	ts, _ := fixedResponseServer(t, http.StatusOK, samlEnvelope(expired+"\n"+live))
	v := NewSAML11Validator(ts.URL, WithClock(fixedClock{now}))

	principal, err := v.Validate(context.Background(), "ST-1", "svc")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if principal.Name() != "jdoe" {
		t.Errorf("Name = %q, expired assertion should be skipped", principal.Name())
	}
}

func TestSAML11Validator_ToleranceCoversSkew(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// NotBefore 500ms in the future: inside the default one-second tolerance.
	assertion := samlAssertion("jdoe",
		now.Add(500*time.Millisecond).Format(time.RFC3339Nano),
		now.Add(5*time.Minute).Format(time.RFC3339), "")

	ts, _ := fixedResponseServer(t, http.StatusOK, samlEnvelope(assertion))
	v := NewSAML11Validator(ts.URL, WithClock(fixedClock{now}))

	if _, err := v.Validate(context.Background(), "ST-1", "svc"); err != nil {
		t.Fatalf("Validate should tolerate sub-second skew: %v", err)
	}
}

func TestSAML11Validator_NoValidAssertions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		body string
	}{
		{"no assertions", samlEnvelope("")},
		{"all expired", samlEnvelope(samlAssertion("jdoe",
			now.Add(-2*time.Hour).Format(time.RFC3339),
			now.Add(-time.Hour).Format(time.RFC3339), ""))},
		{"missing authentication statement", samlEnvelope(`<saml:Assertion xmlns:saml="urn:oasis:names:tc:SAML:1.0:assertion"/>`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, _ := fixedResponseServer(t, http.StatusOK, tc.body)
			v := NewSAML11Validator(ts.URL, WithClock(fixedClock{now}))

			_, err := v.Validate(context.Background(), "ST-1", "svc")
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Code != domain.ErrCodeProtocol {
				t.Fatalf("expected protocol failure, got %v", err)
			}
			if verr.Message != "no valid assertions found in CAS response" {
				t.Errorf("Message = %q", verr.Message)
			}
		})
	}
}

func TestSAML11Validator_AttributeSubjectMismatchAborts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	body := samlEnvelope(samlAssertion("jdoe",
		"", "",
		`
        <saml:AttributeStatement>
          <saml:Subject><saml:NameIdentifier>mallory</saml:NameIdentifier></saml:Subject>
        </saml:AttributeStatement>`))

	ts, _ := fixedResponseServer(t, http.StatusOK, body)
	v := NewSAML11Validator(ts.URL, WithClock(fixedClock{now}))

	_, err := v.Validate(context.Background(), "ST-1", "svc")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Code != domain.ErrCodeProtocol {
		t.Fatalf("expected protocol failure for subject mismatch, got %v", err)
	}
}

func TestSAML11Validator_DefaultParameterNames(t *testing.T) {
	v := NewSAML11Validator("https://cas.example.edu/cas")
	if v.ArtifactParameterName() != "SAMLart" {
		t.Errorf("ArtifactParameterName = %q", v.ArtifactParameterName())
	}
	if v.ServiceParameterName() != "TARGET" {
		t.Errorf("ServiceParameterName = %q", v.ServiceParameterName())
	}
	if v.ValidationPath() != "samlValidate" {
		t.Errorf("ValidationPath = %q", v.ValidationPath())
	}
}
