package httpsp

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// PGTCallbackHandler receives the CAS server's proxy-granting-ticket
// callback. The server first probes the URL with no parameters, then calls
// again with pgtIou and pgtId; both calls expect an empty 200.
type PGTCallbackHandler struct {
	registry ports.ProxyGrantingStore
	logger   *zap.Logger
}

// NewPGTCallbackHandler creates a callback handler storing into the given
// registry.
func NewPGTCallbackHandler(registry ports.ProxyGrantingStore, logger *zap.Logger) *PGTCallbackHandler {
	return &PGTCallbackHandler{registry: registry, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *PGTCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	iou := r.FormValue("pgtIou")
	pgt := r.FormValue("pgtId")

	if iou != "" && pgt != "" {
		if err := h.registry.InsertMapping(r.Context(), iou, pgt); err != nil {
			if h.logger != nil {
				h.logger.Warn("storing proxy-granting ticket failed",
					zap.String("pgt_iou", iou),
					zap.Error(err))
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if h.logger != nil {
			h.logger.Debug("proxy-granting ticket stored", zap.String("pgt_iou", iou))
		}
	}

	w.WriteHeader(http.StatusOK)
}
