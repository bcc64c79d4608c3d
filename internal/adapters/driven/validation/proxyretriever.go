package validation

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// ErrUnknownProxyGrantingTicket is returned when an IOU cannot be resolved,
// either because the callback never arrived or the registry entry expired.
var ErrUnknownProxyGrantingTicket = errors.New("proxy-granting ticket IOU not in registry")

// ProxyTicketRetriever exchanges a proxy-granting ticket for proxy tickets
// over the CAS /proxy endpoint. It resolves IOUs through the
// proxy-granting registry first.
type ProxyTicketRetriever struct {
	client   serverClient
	registry ports.ProxyGrantingStore
}

// NewProxyTicketRetriever creates a retriever against the given server prefix.
func NewProxyTicketRetriever(serverPrefix string, registry ports.ProxyGrantingStore, opts ...Option) *ProxyTicketRetriever {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &ProxyTicketRetriever{
		client:   newServerClient(serverPrefix, o),
		registry: registry,
	}
}

// ProxyTicketFor resolves the IOU and requests a proxy ticket scoped to
// targetService.
func (r *ProxyTicketRetriever) ProxyTicketFor(ctx context.Context, iou, targetService string) (string, error) {
	pgt, ok, err := r.registry.GetTicket(ctx, iou)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnknownProxyGrantingTicket
	}

	query := url.Values{}
	query.Set("pgt", pgt)
	query.Set("targetService", targetService)

	body, err := r.client.get(ctx, "proxy", query)
	if err != nil {
		r.recordRequest(false)
		return "", err
	}

	ticket, err := parseProxyResponse(body)
	r.recordRequest(err == nil)
	if err != nil {
		if r.client.logger != nil {
			r.client.logger.Info("proxy ticket request failed",
				zap.String("target_service", targetService),
				zap.Error(err))
		}
		return "", err
	}
	return ticket, nil
}

func (r *ProxyTicketRetriever) recordRequest(success bool) {
	if r.client.metrics != nil {
		r.client.metrics.RecordProxyTicketRequest(success)
	}
}

func parseProxyResponse(body []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return "", domain.ProtocolError("malformed proxy response XML: " + err.Error())
	}
	root := doc.Root()
	if root == nil || root.Tag != "serviceResponse" {
		return "", domain.ProtocolError("proxy response missing serviceResponse element")
	}

	if failure := childByTag(root, "proxyFailure"); failure != nil {
		code := strings.TrimSpace(failure.SelectAttrValue("code", ""))
		return "", domain.ServerRejectionError(code, strings.TrimSpace(failure.Text()))
	}

	success := childByTag(root, "proxySuccess")
	if success == nil {
		return "", domain.ProtocolError("proxy response carries neither proxySuccess nor proxyFailure")
	}
	ticket := childByTag(success, "proxyTicket")
	if ticket == nil || strings.TrimSpace(ticket.Text()) == "" {
		return "", domain.ProtocolError("proxySuccess missing proxyTicket element")
	}
	return strings.TrimSpace(ticket.Text()), nil
}
