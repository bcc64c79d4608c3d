package ticketstore

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/domain"
	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// verifyIncoming implements the shared VerifyIncoming contract over any
// backend. It gates every authenticated request, so every mismatch resolves
// to a logged false instead of an error - failing closed without breaking
// unrelated traffic.
func verifyIncoming(ctx context.Context, store ports.TicketStore, candidate *domain.AuthenticationTicket, logger *zap.Logger, clock ports.Clock) bool {
	reject := func(reason string, fields ...zap.Field) bool {
		if logger != nil {
			logger.Warn("incoming ticket rejected",
				append([]zap.Field{zap.String("reason", reason)}, fields...)...)
		}
		return false
	}

	if candidate == nil || candidate.ServiceTicket == "" {
		return reject("missing_ticket")
	}

	stored, ok, err := store.Get(ctx, candidate.ServiceTicket)
	if err != nil {
		return reject("store_error", zap.Error(err))
	}
	if !ok {
		return reject("unknown_ticket", zap.String("service_ticket", candidate.ServiceTicket))
	}
	if stored.ServiceTicket != candidate.ServiceTicket {
		return reject("ticket_mismatch", zap.String("service_ticket", candidate.ServiceTicket))
	}

	now := clock.Now()
	if candidate.Expired(now) {
		// The browser presented an expired ticket; drop the stored twin
		// so the key cannot resolve again.
		if _, err := store.Revoke(ctx, candidate.ServiceTicket); err != nil && logger != nil {
			logger.Warn("revoking expired incoming ticket failed", zap.Error(err))
		}
		return reject("incoming_expired", zap.String("service_ticket", candidate.ServiceTicket))
	}
	if stored.Expired(now) {
		return reject("stored_expired", zap.String("service_ticket", candidate.ServiceTicket))
	}

	if !strings.EqualFold(stored.PrincipalName, candidate.PrincipalName) {
		return reject("principal_mismatch",
			zap.String("stored", stored.PrincipalName),
			zap.String("incoming", candidate.PrincipalName))
	}

	return true
}
