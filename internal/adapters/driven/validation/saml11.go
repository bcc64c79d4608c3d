package validation

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// DefaultTolerance is the clock-skew allowance applied to SAML assertion
// validity windows.
const DefaultTolerance = time.Second

const soapAction = "http://www.oasis-open.org/committees/security"

// samlRequestEnvelope is the fixed SOAP scaffolding around the artifact.
// Placeholders: RequestID, IssueInstant, artifact.
const samlRequestEnvelope = `<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/"><SOAP-ENV:Header/><SOAP-ENV:Body><samlp:Request xmlns:samlp="urn:oasis:names:tc:SAML:1.0:protocol" MajorVersion="1" MinorVersion="1" RequestID="%s" IssueInstant="%s"><samlp:AssertionArtifact>%s</samlp:AssertionArtifact></samlp:Request></SOAP-ENV:Body></SOAP-ENV:Envelope>`

// SAML11Validator implements the SAML 1.1 artifact validation profile used
// by CAS (POST to samlValidate). It is the only protocol here that carries
// server-side validity windows and attribute statements.
type SAML11Validator struct {
	client        serverClient
	artifactParam string
	serviceParam  string
	tolerance     time.Duration
}

// NewSAML11Validator creates a validator against the given CAS server prefix.
func NewSAML11Validator(serverPrefix string, opts ...Option) *SAML11Validator {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	v := &SAML11Validator{
		client:        newServerClient(serverPrefix, o),
		artifactParam: o.artifactParam,
		serviceParam:  o.serviceParam,
		tolerance:     o.tolerance,
	}
	if v.artifactParam == "" {
		v.artifactParam = "SAMLart"
	}
	if v.serviceParam == "" {
		v.serviceParam = "TARGET"
	}
	if v.tolerance == 0 {
		v.tolerance = DefaultTolerance
	}
	return v
}

// ArtifactParameterName returns the artifact query parameter name.
func (v *SAML11Validator) ArtifactParameterName() string { return v.artifactParam }

// ServiceParameterName returns the service query parameter name.
func (v *SAML11Validator) ServiceParameterName() string { return v.serviceParam }

// ValidationPath returns the endpoint path relative to the server prefix.
func (v *SAML11Validator) ValidationPath() string { return "samlValidate" }

// Validate exchanges a SAML artifact for a principal.
func (v *SAML11Validator) Validate(ctx context.Context, artifact, serviceURL string) (*domain.Principal, error) {
	query := url.Values{}
	query.Set(v.serviceParam, SanitizeServiceURL(serviceURL, v.artifactParam))

	now := v.client.clock.Now().UTC()
	envelope := fmt.Sprintf(samlRequestEnvelope,
		"_"+uuid.NewString(),
		now.Format(time.RFC3339),
		artifact)

	body, err := v.client.post(ctx, v.ValidationPath(), query, envelope, map[string]string{
		"Content-Type": "text/xml",
		"SOAPAction":   soapAction,
	})
	if err != nil {
		v.client.recordValidation(string(domain.AuthTypeSAML11), false)
		return nil, err
	}

	principal, err := v.parse(body, now)
	v.client.recordValidation(string(domain.AuthTypeSAML11), err == nil)
	if err != nil {
		if v.client.logger != nil {
			v.client.logger.Info("SAML 1.1 validation failed", zap.Error(err))
		}
		return nil, err
	}
	return principal, nil
}

func (v *SAML11Validator) parse(body []byte, now time.Time) (*domain.Principal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, domain.ProtocolError("malformed SAML response XML: " + err.Error())
	}
	if doc.Root() == nil {
		return nil, domain.ProtocolError("empty SAML response")
	}

	assertions := elementsByTag(doc.Root(), "Assertion")
	if len(assertions) == 0 {
		return nil, domain.ProtocolError("no valid assertions found in CAS response")
	}

	// Document order; the first assertion passing the window and subject
	// checks wins.
	for _, assertion := range assertions {
		principal, err := v.buildPrincipal(assertion, now)
		if err != nil {
			return nil, err
		}
		if principal != nil {
			return principal, nil
		}
	}
	return nil, domain.ProtocolError("no valid assertions found in CAS response")
}

// buildPrincipal turns one SAML assertion element into a principal.
// A nil, nil return means "skip this assertion"; an error aborts validation.
func (v *SAML11Validator) buildPrincipal(assertion *etree.Element, now time.Time) (*domain.Principal, error) {
	notBefore, notOnOrAfter, err := v.conditions(assertion)
	if err != nil {
		return nil, err
	}
	if !notBefore.IsZero() && now.Add(v.tolerance).Before(notBefore) {
		return nil, nil
	}
	if !notOnOrAfter.IsZero() && !notOnOrAfter.After(now.Add(-v.tolerance)) {
		return nil, nil
	}

	authnStatement := childByTag(assertion, "AuthenticationStatement")
	if authnStatement == nil {
		return nil, nil
	}
	subject := subjectName(authnStatement)
	if subject == "" {
		return nil, nil
	}

	attributes := map[string][]string{}
	if attrStatement := childByTag(assertion, "AttributeStatement"); attrStatement != nil {
		if attrSubject := subjectName(attrStatement); attrSubject != subject {
			return nil, domain.ProtocolError(fmt.Sprintf(
				"attribute statement subject %q does not match authentication subject %q",
				attrSubject, subject))
		}
		for _, attr := range elementsByTag(attrStatement, "Attribute") {
			name := attr.SelectAttrValue("AttributeName", "")
			if name == "" {
				continue
			}
			for _, value := range attr.ChildElements() {
				if value.Tag == "AttributeValue" {
					attributes[name] = append(attributes[name], strings.TrimSpace(value.Text()))
				}
			}
		}
	}

	domainAssertion, err := domain.NewAssertion(subject, notBefore, notOnOrAfter, attributes)
	if err != nil {
		return nil, domain.ProtocolError(err.Error())
	}
	return domain.NewPrincipal(domainAssertion, domain.AuthTypeSAML11), nil
}

// conditions reads the assertion's Conditions bounds. Either side may be
// absent, meaning unbounded on that side.
func (v *SAML11Validator) conditions(assertion *etree.Element) (notBefore, notOnOrAfter time.Time, err error) {
	conditions := childByTag(assertion, "Conditions")
	if conditions == nil {
		return time.Time{}, time.Time{}, nil
	}
	if raw := conditions.SelectAttrValue("NotBefore", ""); raw != "" {
		notBefore, err = parseSAMLInstant(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if raw := conditions.SelectAttrValue("NotOnOrAfter", ""); raw != "" {
		notOnOrAfter, err = parseSAMLInstant(raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return notBefore, notOnOrAfter, nil
}

func parseSAMLInstant(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.ProtocolError("unparseable SAML timestamp " + raw)
	}
	return t, nil
}

// subjectName digs Subject/NameIdentifier text out of a SAML statement.
func subjectName(statement *etree.Element) string {
	subject := childByTag(statement, "Subject")
	if subject == nil {
		return ""
	}
	nameID := childByTag(subject, "NameIdentifier")
	if nameID == nil {
		return ""
	}
	return strings.TrimSpace(nameID.Text())
}

// elementsByTag collects descendants with the local tag name in document
// order, ignoring namespace prefixes.
func elementsByTag(root *etree.Element, tag string) []*etree.Element {
	var found []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Tag == tag {
				found = append(found, child)
				continue
			}
			walk(child)
		}
	}
	walk(root)
	return found
}

// Ensure SAML11Validator implements ports.TicketValidator
var _ ports.TicketValidator = (*SAML11Validator)(nil)
