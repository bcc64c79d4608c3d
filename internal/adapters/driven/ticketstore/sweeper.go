package ticketstore

import (
	"context"
	"fmt"

	"github.com/robfig/cron"
	"go.uber.org/zap"

	"github.com/philiph/go-cas-sp/internal/core/ports"
)

// DefaultSweepSchedule runs the expiry sweep every two minutes.
const DefaultSweepSchedule = "@every 2m"

// Sweeper periodically evicts expired tickets and proxy-granting mappings
// for backends that do not expire entries natively.
type Sweeper struct {
	c      *cron.Cron
	logger *zap.Logger
}

// NewSweeper schedules SweepExpired on the ticket store and, when a
// registry is given, RemoveExpiredMappings on it. The schedule uses cron
// syntax ("@every 2m", "0 */5 * * * *").
func NewSweeper(store ports.TicketStore, registry ports.ProxyGrantingStore, schedule string, logger *zap.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	s := &Sweeper{
		c:      cron.New(),
		logger: logger,
	}
	err := s.c.AddFunc(schedule, func() {
		ctx := context.Background()
		if err := store.SweepExpired(ctx); err != nil && logger != nil {
			logger.Warn("ticket sweep failed", zap.Error(err))
		}
		if registry != nil {
			if err := registry.RemoveExpiredMappings(ctx); err != nil && logger != nil {
				logger.Warn("proxy-granting sweep failed", zap.Error(err))
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the background schedule.
func (s *Sweeper) Start() {
	s.c.Start()
}

// Stop halts the schedule. A sweep already in flight finishes.
func (s *Sweeper) Stop() {
	s.c.Stop()
}
