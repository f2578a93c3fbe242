package usecase

import (
	"context"
	"log/slog"
	"time"

	"adrelay/internal/core/domain"
	"adrelay/internal/core/port"
)

// Selector filters the cached campaign list through the targeting
// evaluator and returns the first eligible entry in stored order. The
// rules' weight attribute is deliberately not consulted: selection is
// strictly first-match.
type Selector struct {
	counter port.Counter
	logger  *slog.Logger
	now     func() time.Time
}

// NewSelector returns a selector enforcing stateful rules (frequency cap,
// unique velocity) through the given counter.
func NewSelector(counter port.Counter, logger *slog.Logger) *Selector {
	return &Selector{counter: counter, logger: logger, now: time.Now}
}

// Select returns the first campaign that passes every targeting rule, or
// nil when none qualifies. A campaign with a malformed rule payload, or
// whose capping state cannot be read, is skipped rather than served
// (fail closed).
func (s *Selector) Select(ctx context.Context, campaigns []domain.Campaign, rc domain.RequestContext) *domain.Campaign {
	for i := range campaigns {
		c := campaigns[i]
		ok, err := domain.IsEligible(c, rc)
		if err != nil {
			s.logger.Warn("skipping campaign with malformed rule",
				slog.Int64("campaign_id", c.ID), slog.Any("error", err))
			continue
		}
		if !ok {
			continue
		}
		if !s.withinLimits(ctx, c, rc) {
			continue
		}
		return &c
	}
	return nil
}

// withinLimits enforces frequency_cap and unique_velocity rules. Requests
// without a user id are unconstrained, matching the permissive default
// for missing attributes.
func (s *Selector) withinLimits(ctx context.Context, c domain.Campaign, rc domain.RequestContext) bool {
	if rc.UserID == "" {
		return true
	}
	for _, r := range c.Rules {
		switch r.Type {
		case domain.RuleTypeFrequencyCap:
			threshold, err := domain.ParseCapThreshold(r.Payload)
			if err != nil {
				return false
			}
			capped, err := s.counter.CheckCap(ctx, c.ID, rc.UserID, threshold)
			if err != nil {
				s.logger.Warn("cap check failed",
					slog.Int64("campaign_id", c.ID), slog.Any("error", err))
				return false
			}
			if capped {
				return false
			}
		case domain.RuleTypeUniqueVelocity:
			n, m, err := domain.ParseVelocity(r.Payload)
			if err != nil {
				return false
			}
			since := s.now().Add(-time.Duration(m) * time.Hour)
			seen, err := s.counter.ImpressionsSince(ctx, c.ID, rc.UserID, since)
			if err != nil {
				s.logger.Warn("velocity check failed",
					slog.Int64("campaign_id", c.ID), slog.Any("error", err))
				return false
			}
			if seen >= n {
				return false
			}
		}
	}
	return true
}
