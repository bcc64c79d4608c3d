package validation

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// CAS2Validator implements the CAS 2.0/3.0 XML validation protocol
// (namespace http://www.yale.edu/tp/cas). With a proxy callback configured
// it validates against proxyValidate and resolves proxy-granting-ticket
// IOUs through the registry.
type CAS2Validator struct {
	client        serverClient
	artifactParam string
	serviceParam  string
	renew         bool
	proxyCallback string
	retriever     *ProxyTicketRetriever
}

// NewCAS2Validator creates a validator against the given CAS server prefix.
func NewCAS2Validator(serverPrefix string, opts ...Option) *CAS2Validator {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	v := &CAS2Validator{
		client:        newServerClient(serverPrefix, o),
		artifactParam: o.artifactParam,
		serviceParam:  o.serviceParam,
		renew:         o.renew,
		proxyCallback: o.proxyCallback,
	}
	if v.artifactParam == "" {
		v.artifactParam = "ticket"
	}
	if v.serviceParam == "" {
		v.serviceParam = "service"
	}
	if o.proxyGranting != nil {
		v.retriever = NewProxyTicketRetriever(serverPrefix, o.proxyGranting, opts...)
	}
	return v
}

// ArtifactParameterName returns the artifact query parameter name.
func (v *CAS2Validator) ArtifactParameterName() string { return v.artifactParam }

// ServiceParameterName returns the service query parameter name.
func (v *CAS2Validator) ServiceParameterName() string { return v.serviceParam }

// ValidationPath returns serviceValidate, or proxyValidate when
// proxy-granting-ticket support is enabled.
func (v *CAS2Validator) ValidationPath() string {
	if v.proxyCallback != "" {
		return "proxyValidate"
	}
	return "serviceValidate"
}

// Validate exchanges a service ticket for a principal over CAS 2.0/3.0.
func (v *CAS2Validator) Validate(ctx context.Context, artifact, serviceURL string) (*domain.Principal, error) {
	query := url.Values{}
	query.Set(v.artifactParam, artifact)
	query.Set(v.serviceParam, SanitizeServiceURL(serviceURL, v.artifactParam))
	if v.renew {
		query.Set("renew", "true")
	}
	if v.proxyCallback != "" {
		query.Set("pgtUrl", v.proxyCallback)
	}

	body, err := v.client.get(ctx, v.ValidationPath(), query)
	if err != nil {
		v.client.recordValidation(string(domain.AuthTypeCAS2), false)
		return nil, err
	}

	principal, err := v.parse(body)
	v.client.recordValidation(string(domain.AuthTypeCAS2), err == nil)
	if err != nil {
		if v.client.logger != nil {
			v.client.logger.Info("CAS 2.0 validation failed", zap.Error(err))
		}
		return nil, err
	}
	return principal, nil
}

func (v *CAS2Validator) parse(body []byte) (*domain.Principal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, domain.ProtocolError("malformed CAS response XML: " + err.Error())
	}
	root := doc.Root()
	if root == nil || root.Tag != "serviceResponse" {
		return nil, domain.ProtocolError("CAS response missing serviceResponse element")
	}

	if failure := childByTag(root, "authenticationFailure"); failure != nil {
		code := strings.TrimSpace(failure.SelectAttrValue("code", ""))
		return nil, domain.ServerRejectionError(code, strings.TrimSpace(failure.Text()))
	}
	if childByTag(root, "proxySuccess") != nil || childByTag(root, "proxyFailure") != nil {
		return nil, domain.ProtocolError("unexpected proxy response on ticket validation endpoint")
	}

	success := childByTag(root, "authenticationSuccess")
	if success == nil {
		return nil, domain.ProtocolError("CAS response carries neither authenticationSuccess nor authenticationFailure")
	}

	user := childByTag(success, "user")
	if user == nil || strings.TrimSpace(user.Text()) == "" {
		return nil, domain.ProtocolError("authenticationSuccess missing user element")
	}

	attributes := parseCASAttributes(success)
	assertion, err := domain.NewAssertion(strings.TrimSpace(user.Text()), v.client.clock.Now(), time.Time{}, attributes)
	if err != nil {
		return nil, domain.ProtocolError(err.Error())
	}
	principal := domain.NewPrincipal(assertion, domain.AuthTypeCAS2)

	if pgt := childByTag(success, "proxyGrantingTicket"); pgt != nil && v.retriever != nil {
		iou := strings.TrimSpace(pgt.Text())
		if iou != "" {
			retriever := v.retriever
			principal.AttachProxyCapability(iou, func(ctx context.Context, targetService string) (string, error) {
				return retriever.ProxyTicketFor(ctx, iou, targetService)
			})
		}
	}

	return principal, nil
}

// parseCASAttributes flattens a CAS 3.0 attributes block into a multimap.
// Repeated child tags accumulate in document order.
func parseCASAttributes(success *etree.Element) map[string][]string {
	block := childByTag(success, "attributes")
	if block == nil {
		return nil
	}
	attributes := map[string][]string{}
	for _, child := range block.ChildElements() {
		attributes[child.Tag] = append(attributes[child.Tag], strings.TrimSpace(child.Text()))
	}
	return attributes
}

// childByTag returns the first child element with the local tag name,
// ignoring the namespace prefix the server chose.
func childByTag(parent *etree.Element, tag string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// Ensure CAS2Validator implements ports.TicketValidator
var _ ports.TicketValidator = (*CAS2Validator)(nil)
