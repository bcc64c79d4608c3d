package httpsp

import (
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// LogoutHandler interprets inbound single-logout notifications from the CAS
// server and terminates the matching local session.
type LogoutHandler struct {
	correlation ports.CorrelationStore
	sessions    ports.SessionRegistry
	tickets     ports.TicketStore
	logger      *zap.Logger
	metrics     ports.MetricsRecorder
}

// NewLogoutHandler creates a handler over the correlation store. The
// session registry and ticket store may be nil when the host has nothing
// server-side to terminate.
func NewLogoutHandler(correlation ports.CorrelationStore, sessions ports.SessionRegistry, tickets ports.TicketStore, logger *zap.Logger, metrics ports.MetricsRecorder) *LogoutHandler {
	return &LogoutHandler{
		correlation: correlation,
		sessions:    sessions,
		tickets:     tickets,
		logger:      logger,
		metrics:     metrics,
	}
}

// ProcessLogoutNotification recognizes a POST carrying a logoutRequest form
// field, resolves its session index through the correlation store, and
// terminates the referenced local session. Returns false for any request
// that is not a logout notification, so normal processing continues.
// Termination errors are logged, never propagated - this is best-effort
// cleanup triggered by the server, not by the user.
func (h *LogoutHandler) ProcessLogoutNotification(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	body := r.PostFormValue("logoutRequest")
	if body == "" {
		return false
	}

	serverKey, err := parseLogoutRequest(body)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("unparseable logout notification", zap.Error(err))
		}
		h.record(false)
		// Still a logout notification; swallow it rather than letting it
		// fall through to auth handling.
		return true
	}

	mapping, found, err := h.correlation.TakeByServerKey(r.Context(), serverKey)
	if err != nil || !found {
		if h.logger != nil {
			h.logger.Info("logout notification for unknown session",
				zap.String("server_key", serverKey))
		}
		h.record(false)
		return true
	}

	if h.sessions != nil {
		if err := h.sessions.Terminate(r.Context(), mapping.SessionHandle); err != nil && h.logger != nil {
			h.logger.Warn("session termination failed",
				zap.String("client_key", mapping.ClientKey),
				zap.Error(err))
		}
	}
	if h.tickets != nil {
		// The server key is the service ticket; drop its stored twin so
		// VerifyIncoming fails closed from now on.
		if _, err := h.tickets.Revoke(r.Context(), serverKey); err != nil && h.logger != nil {
			h.logger.Warn("ticket revocation on logout failed", zap.Error(err))
		}
	}

	if h.logger != nil {
		h.logger.Info("single logout processed",
			zap.String("server_key", serverKey),
			zap.String("client_key", mapping.ClientKey))
	}
	h.record(true)
	return true
}

func (h *LogoutHandler) record(handled bool) {
	if h.metrics != nil {
		h.metrics.RecordLogoutNotification(handled)
	}
}

// parseLogoutRequest extracts the SessionIndex text from the SAML-like
// logout XML fragment CAS servers post.
func parseLogoutRequest(body string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(body); err != nil {
		return "", err
	}
	root := doc.Root()
	if root == nil {
		return "", errEmptyLogoutRequest
	}
	for _, child := range root.ChildElements() {
		if child.Tag == "SessionIndex" {
			if index := strings.TrimSpace(child.Text()); index != "" {
				return index, nil
			}
		}
	}
	return "", errMissingSessionIndex
}
