package validation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// maxResponseBytes caps validation response bodies. CAS responses are a few
// kilobytes at most; anything larger is not a CAS server.
const maxResponseBytes = 1 << 20

// defaultTimeout bounds the transport when the caller supplies no client.
// Callers are expected to apply a request-scoped timeout via context.
const defaultTimeout = 30 * time.Second

// serverClient is the shared outbound HTTP plumbing for all validators.
type serverClient struct {
	serverPrefix string
	httpClient   *http.Client
	logger       *zap.Logger
	metrics      ports.MetricsRecorder
	clock        ports.Clock
}

func newServerClient(serverPrefix string, o *options) serverClient {
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	clock := o.clock
	if clock == nil {
		clock = ports.RealClock{}
	}
	return serverClient{
		serverPrefix: strings.TrimRight(serverPrefix, "/"),
		httpClient:   client,
		logger:       o.logger,
		metrics:      o.metricsRecorder,
		clock:        clock,
	}
}

// recordValidation records the attempt if a recorder is configured.
func (c *serverClient) recordValidation(protocol string, success bool) {
	if c.metrics != nil {
		c.metrics.RecordValidation(protocol, success)
	}
}

// endpoint joins the server prefix with a relative protocol path.
func (c *serverClient) endpoint(path string) string {
	return c.serverPrefix + "/" + strings.TrimLeft(path, "/")
}

// get performs a validation GET and returns the body.
// Transport and non-200 failures come back as *domain.ValidationError.
func (c *serverClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	target := c.endpoint(path) + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, domain.TransportError("create validation request", err)
	}
	return c.do(req)
}

// post performs a validation POST with the given body and headers.
func (c *serverClient) post(ctx context.Context, path string, query url.Values, body string, headers map[string]string) ([]byte, error) {
	target := c.endpoint(path) + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return nil, domain.TransportError("create validation request", err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	return c.do(req)
}

func (c *serverClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("CAS server unreachable",
				zap.String("url", req.URL.Redacted()),
				zap.Error(err))
		}
		return nil, domain.TransportError("reach CAS server", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.TransportError("read CAS server response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.TransportError(
			fmt.Sprintf("CAS server answered HTTP %d", resp.StatusCode), nil)
	}
	return data, nil
}
